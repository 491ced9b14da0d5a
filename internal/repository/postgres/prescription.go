package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
)

type prescriptionRepository struct {
	db *sqlx.DB
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

// prescriptionRow carries the JSONB medicines column alongside the
// scalar fields.
type prescriptionRow struct {
	ID        uuid.UUID  `db:"id"`
	PatientID uuid.UUID  `db:"patient_id"`
	DoctorID  *uuid.UUID `db:"doctor_id"`
	Date      string     `db:"date"`
	Status    string     `db:"status"`
	Medicines []byte     `db:"medicines"`
	ImageURL  string     `db:"image_url"`
	Diagnosis string     `db:"diagnosis"`
	Notes     string     `db:"notes"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (row *prescriptionRow) toModel() (*model.Prescription, error) {
	rx := &model.Prescription{
		Base:      model.Base{ID: row.ID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt},
		PatientID: row.PatientID,
		DoctorID:  row.DoctorID,
		Date:      row.Date,
		Status:    model.PrescriptionStatus(row.Status),
		Medicines: []model.Medicine{},
		ImageURL:  row.ImageURL,
		Diagnosis: row.Diagnosis,
		Notes:     row.Notes,
	}
	if len(row.Medicines) > 0 {
		if err := json.Unmarshal(row.Medicines, &rx.Medicines); err != nil {
			return nil, fmt.Errorf("failed to unmarshal medicines: %w", err)
		}
	}
	return rx, nil
}

const prescriptionColumns = `id, patient_id, doctor_id, date, status, medicines, image_url, diagnosis, notes, created_at, updated_at`

// Upsert inserts on a new id and fully replaces otherwise. Last write
// wins; there is no conflict detection.
func (r *prescriptionRepository) Upsert(ctx context.Context, rx *model.Prescription) error {
	medicines, err := json.Marshal(rx.Medicines)
	if err != nil {
		return fmt.Errorf("failed to marshal medicines: %w", err)
	}

	query := `
		INSERT INTO prescriptions (id, patient_id, doctor_id, date, status, medicines, image_url, diagnosis, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			doctor_id = EXCLUDED.doctor_id,
			date = EXCLUDED.date,
			status = EXCLUDED.status,
			medicines = EXCLUDED.medicines,
			image_url = EXCLUDED.image_url,
			diagnosis = EXCLUDED.diagnosis,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if _, err := r.db.ExecContext(ctx, query,
		rx.ID,
		rx.PatientID,
		rx.DoctorID,
		rx.Date,
		rx.Status,
		medicines,
		rx.ImageURL,
		rx.Diagnosis,
		rx.Notes,
		now,
	); err != nil {
		return fmt.Errorf("failed to upsert prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`
	var row prescriptionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return row.toModel()
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE patient_id = $1 ORDER BY date DESC, id`
	return r.list(ctx, query, patientID)
}

func (r *prescriptionRepository) ListPending(ctx context.Context) ([]*model.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE status = $1 ORDER BY date DESC, id`
	return r.list(ctx, query, model.StatusPendingValidation)
}

func (r *prescriptionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM prescriptions`); err != nil {
		return 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}
	return n, nil
}

func (r *prescriptionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Prescription, error) {
	var rows []prescriptionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	list := make([]*model.Prescription, 0, len(rows))
	for i := range rows {
		rx, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		list = append(list, rx)
	}
	return list, nil
}
