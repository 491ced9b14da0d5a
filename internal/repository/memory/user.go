package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
)

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.s.simulate(ctx); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s already in use", user.Email)
		}
	}

	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByHealthID(ctx context.Context, healthID string) (*model.User, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Role == model.RolePatient && u.HealthID == healthID {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*model.User, 0)
	for _, u := range r.s.users {
		if u.Role == role {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role model.UserRole) (int, error) {
	if err := r.s.simulate(ctx); err != nil {
		return 0, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type labReportRepository struct {
	s *Store
}

func NewLabReportRepository(s *Store) repository.LabReportRepository {
	return &labReportRepository{s: s}
}

func (r *labReportRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LabReport, error) {
	if err := r.s.simulate(ctx); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reports := make([]*model.LabReport, 0, len(r.s.labReports[patientID]))
	for _, lr := range r.s.labReports[patientID] {
		c := *lr
		reports = append(reports, &c)
	}
	return reports, nil
}
