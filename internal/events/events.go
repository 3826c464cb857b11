// Package events 发布领域事件，投递失败只记日志，不影响业务请求
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	TypeArtworkCreated      = "artwork.created"
	TypePageSaved           = "page.saved"
	TypeCollaborationJoined = "collaboration.joined"
)

// Event 领域事件，Subject 同时作为分区键
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Subject    string                 `json:"subject"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// stamp 补全 ID 与时间
func stamp(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return e
}

// LogPublisher 没有配置 broker 时把事件写入日志
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) {
	event = stamp(event)
	data, _ := json.Marshal(event.Data)
	log.WithFields(log.Fields{
		"event_id": event.ID,
		"subject":  event.Subject,
	}).Infof("[Events] %s %s", event.Type, data)
}

func (p *LogPublisher) Close() error {
	return nil
}
