package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anoixa/colab/internal/worker"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// messageWriter kafka.Writer 的最小子集
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	Workers      int
	QueueSize    int
}

// KafkaPublisher 通过 kafka-go 发布事件
// Publish 立即返回，写入由有界的 worker 池完成，队列满时丢弃
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	pool    *worker.Pool
}

// NewKafkaPublisher 创建 Kafka 发布者
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return newKafkaPublisher(w, cfg)
}

func newKafkaPublisher(w messageWriter, cfg KafkaConfig) *KafkaPublisher {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &KafkaPublisher{
		writer:  w,
		timeout: cfg.WriteTimeout,
		pool:    worker.NewNamedPool("Events", cfg.Workers, cfg.QueueSize),
	}
}

// Publish 异步写入；请求上下文结束不会取消投递
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	event = stamp(event)
	value, err := json.Marshal(event)
	if err != nil {
		log.Errorf("[Events] Failed to encode %s: %v", event.Type, err)
		return
	}
	msg := kafka.Message{Key: []byte(event.Subject), Value: value}

	ok := p.pool.Submit(func() {
		wctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.writer.WriteMessages(wctx, msg); err != nil {
			log.Errorf("[Events] Failed to publish %s (%s): %v", event.Type, event.ID, err)
		}
	})
	if !ok {
		log.Warnf("[Events] Dropped %s (%s)", event.Type, event.ID)
	}
}

// Stats 投递队列统计
func (p *KafkaPublisher) Stats() worker.Stats {
	return p.pool.GetStats()
}

// Close 等待在途消息后关闭 writer
func (p *KafkaPublisher) Close() error {
	p.pool.Stop()
	return p.writer.Close()
}
