package mq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"proxify/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPublisher_Publish(t *testing.T) {
	w := &captureWriter{}
	p := NewPublisher(w, newTestLogger())

	id := uuid.New()
	ev := domain.LifecycleEvent{
		Kind:       domain.LifecycleCreated,
		AlertID:    id,
		Alert:      &domain.Alert{ID: id, Lat: 1, Lng: 2, Payload: domain.Payload{Message: "m"}},
		OccurredAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, id.String(), string(w.msgs[0].Key))

	var got domain.LifecycleEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, domain.LifecycleCreated, got.Kind)
	assert.Equal(t, id, got.AlertID)
	require.NotNil(t, got.Alert)
	assert.Equal(t, "m", got.Alert.Payload.Message)
	assert.True(t, ev.OccurredAt.Equal(got.OccurredAt))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	w := &captureWriter{err: errors.New("broker down")}
	p := NewPublisher(w, newTestLogger())

	err := p.Publish(context.Background(), domain.LifecycleEvent{Kind: domain.LifecycleDeleted, AlertID: uuid.New()})
	assert.Error(t, err)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"k1:9092", "k2:9092"}, "alerts.lifecycle")
	assert.Equal(t, "alerts.lifecycle", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}
