package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/model"
)

// ErrNotFound is returned by every backend when a record does not
// resolve. The service layer maps it onto the user-facing taxonomy.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file. The workflow layer treats these
// as black boxes; the memory backend simulates a latent remote store and
// the postgres backend is the durable option.
type (
	// UserRepository is the user directory.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByHealthID(ctx context.Context, healthID string) (*model.User, error)
		ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error)
		CountByRole(ctx context.Context, role model.UserRole) (int, error)
	}

	// PrescriptionRepository exposes accept-latest-write semantics:
	// Upsert inserts on a new id and fully replaces otherwise, with no
	// conflict detection.
	PrescriptionRepository interface {
		Upsert(ctx context.Context, rx *model.Prescription) error
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error)
		ListPending(ctx context.Context) ([]*model.Prescription, error)
		Count(ctx context.Context) (int, error)
	}

	// LabReportRepository serves read-only dashboard data.
	LabReportRepository interface {
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LabReport, error)
	}

	// OutboxRepository stores lifecycle events for the worker to publish.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	}
)
