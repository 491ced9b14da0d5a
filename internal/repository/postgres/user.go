package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, role, password_hash, avatar_url, health_id, age, gender, blood_group, specialization, license_number, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, name, email, role, password_hash, avatar_url, health_id, age, gender, blood_group, specialization, license_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role,
		user.PasswordHash,
		user.AvatarURL,
		user.HealthID,
		user.Age,
		user.Gender,
		user.BloodGroup,
		user.Specialization,
		user.LicenseNumber,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByHealthID(ctx context.Context, healthID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND health_id = $2`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, model.RolePatient, healthID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by health ID: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at`
	users := make([]*model.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role model.UserRole) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = $1`, role); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

type labReportRepository struct {
	db *sqlx.DB
}

func NewLabReportRepository(db *sqlx.DB) repository.LabReportRepository {
	return &labReportRepository{db: db}
}

func (r *labReportRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LabReport, error) {
	query := `SELECT id, date, test_name, result, normal_range FROM lab_reports WHERE patient_id = $1 ORDER BY date DESC`
	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lab reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*model.LabReport, 0)
	for rows.Next() {
		var lr model.LabReport
		if err := rows.Scan(&lr.ID, &lr.Date, &lr.TestName, &lr.Result, &lr.NormalRange); err != nil {
			return nil, fmt.Errorf("failed to scan lab report: %w", err)
		}
		reports = append(reports, &lr)
	}
	return reports, rows.Err()
}
