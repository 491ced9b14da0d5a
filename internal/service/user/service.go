// Package user manages the hospital roster: doctor and patient
// registration, health ID lookup and the admin dashboard counts.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayurmed/hms-api/internal/email"
	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
	"github.com/ayurmed/hms-api/internal/service/event"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
	"github.com/ayurmed/hms-api/pkg/idgen"
)

const emailDomain = "ayurmed.in"

type Service struct {
	userRepo repository.UserRepository
	rxRepo   repository.PrescriptionRepository
	labRepo  repository.LabReportRepository
	ids      *idgen.Allocator
	mailer   email.Sender
	events   event.Recorder
}

func NewService(userRepo repository.UserRepository, rxRepo repository.PrescriptionRepository, labRepo repository.LabReportRepository, ids *idgen.Allocator, mailer email.Sender, events event.Recorder) *Service {
	return &Service{
		userRepo: userRepo,
		rxRepo:   rxRepo,
		labRepo:  labRepo,
		ids:      ids,
		mailer:   mailer,
		events:   events,
	}
}

// CreateDoctor registers a doctor with a freshly issued license number.
// The password is optional; when present it is stored as a bcrypt hash.
func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.User, error) {
	doctor := &model.User{
		Base:           model.Base{ID: uuid.New()},
		Name:           req.Name,
		Email:          req.Email,
		Role:           model.RoleDoctor,
		Specialization: req.Specialization,
		LicenseNumber:  s.ids.LicenseNumber(),
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		doctor.PasswordHash = string(hash)
	}

	if err := s.userRepo.Create(ctx, doctor); err != nil {
		return nil, apperrors.Validation("failed to create doctor", err)
	}

	if err := s.mailer.SendWelcome(doctor.Email, doctor.Name, "doctor", doctor.LicenseNumber); err != nil {
		log.Warn().Err(err).Str("email", doctor.Email).Msg("welcome email not sent")
	}

	s.events.Record(ctx, model.EventUserCreate, doctor)
	return doctor, nil
}

// CreatePatient registers a patient. The health ID is allocated with a
// uniqueness check against the store, and the login email is derived
// from the patient's name.
func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.User, error) {
	healthID, err := s.ids.HealthID(ctx, func(ctx context.Context, id string) (bool, error) {
		_, err := s.userRepo.GetByHealthID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	addr, err := s.freeEmail(ctx, req.Name)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	patient := &model.User{
		Base:       model.Base{ID: uuid.New()},
		Name:       req.Name,
		Email:      addr,
		Role:       model.RolePatient,
		HealthID:   healthID,
		Age:        req.Age,
		Gender:     req.Gender,
		BloodGroup: req.BloodGroup,
	}

	if err := s.userRepo.Create(ctx, patient); err != nil {
		return nil, apperrors.Validation("failed to create patient", err)
	}

	if err := s.mailer.SendWelcome(patient.Email, patient.Name, "patient", patient.HealthID); err != nil {
		log.Warn().Err(err).Str("email", patient.Email).Msg("welcome email not sent")
	}

	s.events.Record(ctx, model.EventUserCreate, patient)
	return patient, nil
}

// freeEmail derives a login address from the patient's name, suffixing
// a counter when the plain form is already taken.
func (s *Service) freeEmail(ctx context.Context, name string) (string, error) {
	local := strings.ToLower(strings.Join(strings.Fields(name), "."))
	for i := 0; i < 100; i++ {
		candidate := fmt.Sprintf("%s@%s", local, emailDomain)
		if i > 0 {
			candidate = fmt.Sprintf("%s%d@%s", local, i, emailDomain)
		}
		_, err := s.userRepo.GetByEmail(ctx, candidate)
		if errors.Is(err, repository.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not derive a free email for %q", name)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(err)
	}
	return u, nil
}

// FindPatientByHealthID is the doctor-side lookup. Health IDs identify
// patients only; staff records are never returned.
func (s *Service) FindPatientByHealthID(ctx context.Context, healthID string) (*model.User, error) {
	u, err := s.userRepo.GetByHealthID(ctx, healthID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	return u, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.User, error) {
	return s.listByRole(ctx, model.RoleDoctor)
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.User, error) {
	return s.listByRole(ctx, model.RolePatient)
}

func (s *Service) listByRole(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// Counts returns the admin dashboard roll-up.
func (s *Service) Counts(ctx context.Context) (*model.Counts, error) {
	doctors, err := s.userRepo.CountByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	patients, err := s.userRepo.CountByRole(ctx, model.RolePatient)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	prescriptions, err := s.rxRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.Counts{
		Doctors:       doctors,
		Patients:      patients,
		Prescriptions: prescriptions,
	}, nil
}

// ListLabReports returns the read-only lab entries for a patient.
func (s *Service) ListLabReports(ctx context.Context, patientID uuid.UUID) ([]*model.LabReport, error) {
	reports, err := s.labRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return reports, nil
}
