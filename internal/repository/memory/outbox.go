package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
)

type outboxRepository struct {
	s *Store
}

func NewOutboxRepository(s *Store) repository.OutboxRepository {
	return &outboxRepository{s: s}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if err := r.s.simulate(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = string(model.OutboxStatusPending)
	}
	c := *event
	r.s.outbox = append(r.s.outbox, &c)
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := make([]*model.OutboxEvent, 0, limit)
	for _, e := range r.s.outbox {
		if e.Status != string(model.OutboxStatusPending) {
			continue
		}
		c := *e
		events = append(events, &c)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	if err := r.s.simulate(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.outbox {
		if e.ID == id {
			e.Status = string(status)
			e.ErrorMessage = errMsg
			e.UpdatedAt = time.Now()
			if status == model.OutboxStatusProcessed {
				now := time.Now()
				e.ProcessedAt = &now
			}
			if status == model.OutboxStatusFailed {
				e.RetryCount++
			}
			return nil
		}
	}
	return repository.ErrNotFound
}
