package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository/memory"
	"github.com/ayurmed/hms-api/pkg/logger"
	"github.com/ayurmed/hms-api/pkg/metrics"
)

type mockBroker struct {
	published []interface{}
	err       error
}

func (m *mockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, message)
	return nil
}

func (m *mockBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (m *mockBroker) Close() error { return nil }

var testMetrics = metrics.NewMetrics("ayurmed", "worker_test")

func newProcessor(t *testing.T, broker *mockBroker) (*OutboxProcessor, *memory.Store) {
	t.Helper()

	store := memory.NewStore(0)
	repo := memory.NewOutboxRepository(store)
	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		Channel:       "ayurmed.events",
		BatchSize:     10,
		PollInterval:  time.Millisecond,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), testMetrics)
	return p, store
}

func pendingEvent(t *testing.T, store *memory.Store) *model.OutboxEvent {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"hello": "world"})
	require.NoError(t, err)
	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventPrescriptionUpload,
		Payload:   payload,
		Status:    string(model.OutboxStatusPending),
	}
	require.NoError(t, memory.NewOutboxRepository(store).Create(context.Background(), event))
	return event
}

func TestProcessBatchPublishesAndMarksProcessed(t *testing.T) {
	broker := &mockBroker{}
	p, store := newProcessor(t, broker)
	event := pendingEvent(t, store)

	require.NoError(t, p.processBatch(context.Background()))
	assert.Len(t, broker.published, 1)

	pending, err := memory.NewOutboxRepository(store).GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "event %s should no longer be pending", event.ID)
}

func TestProcessBatchMarksFailedAfterRetries(t *testing.T) {
	broker := &mockBroker{err: errors.New("redis down")}
	p, store := newProcessor(t, broker)
	pendingEvent(t, store)

	require.NoError(t, p.processBatch(context.Background()))

	pending, err := memory.NewOutboxRepository(store).GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed events leave the pending set")
}
