package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
)

type prescriptionRepository struct {
	s *Store
}

func NewPrescriptionRepository(s *Store) repository.PrescriptionRepository {
	return &prescriptionRepository{s: s}
}

// Upsert inserts on a new id and fully replaces otherwise. Last write
// wins; there is no conflict detection.
func (r *prescriptionRepository) Upsert(ctx context.Context, rx *model.Prescription) error {
	if err := r.s.simulate(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if existing, ok := r.s.prescriptions[rx.ID]; ok {
		rx.CreatedAt = existing.CreatedAt
	} else {
		rx.CreatedAt = now
	}
	rx.UpdatedAt = now
	r.s.prescriptions[rx.ID] = cloneRx(rx)
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rx, ok := r.s.prescriptions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRx(rx), nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]*model.Prescription, 0)
	for _, rx := range r.s.prescriptions {
		if rx.PatientID == patientID {
			list = append(list, cloneRx(rx))
		}
	}
	sortByDate(list)
	return list, nil
}

func (r *prescriptionRepository) ListPending(ctx context.Context) ([]*model.Prescription, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]*model.Prescription, 0)
	for _, rx := range r.s.prescriptions {
		if rx.Status == model.StatusPendingValidation {
			list = append(list, cloneRx(rx))
		}
	}
	sortByDate(list)
	return list, nil
}

func (r *prescriptionRepository) Count(ctx context.Context) (int, error) {
	if err := r.s.simulate(ctx); err != nil {
		return 0, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.prescriptions), nil
}

// Newest first; ties broken by id for a stable order.
func sortByDate(list []*model.Prescription) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date > list[j].Date
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
