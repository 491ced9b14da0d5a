package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/model"
)

// Store is a process-lifetime, in-memory data store with simulated
// latency. It models a remote gateway: every operation sleeps for the
// configured latency (context-aware) before touching the maps, and all
// reads return copies so callers never alias stored records.
type Store struct {
	mu            sync.RWMutex
	latency       time.Duration
	users         map[uuid.UUID]*model.User
	prescriptions map[uuid.UUID]*model.Prescription
	labReports    map[uuid.UUID][]*model.LabReport
	outbox        []*model.OutboxEvent
}

func NewStore(latency time.Duration) *Store {
	return &Store{
		latency:       latency,
		users:         make(map[uuid.UUID]*model.User),
		prescriptions: make(map[uuid.UUID]*model.Prescription),
		labReports:    make(map[uuid.UUID][]*model.LabReport),
	}
}

// simulate blocks for the configured latency or until ctx is done.
func (s *Store) simulate(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func cloneRx(p *model.Prescription) *model.Prescription {
	c := *p
	c.Medicines = append([]model.Medicine(nil), p.Medicines...)
	if p.DoctorID != nil {
		id := *p.DoctorID
		c.DoctorID = &id
	}
	return &c
}
