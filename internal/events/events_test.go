package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/anoixa/colab/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, KafkaConfig{})

	// 请求上下文已取消也不影响投递
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Publish(ctx, Event{Type: TypeArtworkCreated, Subject: "artwork:1", Data: map[string]interface{}{"kind": "music"}})
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	assert.True(t, w.closed)
	assert.Equal(t, "artwork:1", string(w.msgs[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, TypeArtworkCreated, got.Type)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.OccurredAt.IsZero())
	assert.Equal(t, "music", got.Data["kind"])
}

func TestKafkaPublisher_WriteErrorIsSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, KafkaConfig{Workers: 1})
	p.Publish(context.Background(), Event{Type: TypePageSaved})
	assert.NoError(t, p.Close())
	assert.Empty(t, w.msgs)
	assert.Equal(t, uint64(1), p.Stats().Executed)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Publish(context.Background(), Event{Type: TypePageSaved})
	r.Publish(context.Background(), Event{Type: TypeCollaborationJoined})
	assert.Equal(t, []string{TypePageSaved, TypeCollaborationJoined}, r.Types())
	assert.NotEmpty(t, r.Events()[0].ID)
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher(&config.Config{})
	_, ok := p.(*LogPublisher)
	assert.True(t, ok)
	p.Publish(context.Background(), Event{Type: TypePageSaved})
	assert.NoError(t, p.Close())

	kp := NewPublisher(&config.Config{KafkaBrokers: "localhost:9092", KafkaTopic: "t"})
	_, ok = kp.(*KafkaPublisher)
	assert.True(t, ok)
	assert.NoError(t, kp.Close())
}
