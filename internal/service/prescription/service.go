// Package prescription implements the digitization workflow: a scanned
// prescription is uploaded as a pending record, run through structured
// extraction to produce a draft, then validated by a doctor and saved.
package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
	"github.com/ayurmed/hms-api/internal/service/event"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
)

const processingDiagnosis = "Processing..."

// Placeholder draft for prescriptions whose image is stored as a plain
// URL rather than embedded data. There is no image payload to send to
// the model, so extraction returns a fixed example instead.
const fallbackDiagnosis = "Example Diagnosis (AI placeholder)"

var fallbackMedicines = []model.Medicine{
	{
		Name:         "Paracetamol",
		Dosage:       "500mg",
		Frequency:    "1-0-1",
		Duration:     "5 days",
		Instructions: "After food",
	},
}

// Extractor turns a scanned prescription image into a structured draft.
type Extractor interface {
	Parse(ctx context.Context, imageBase64, mimeType string) (*model.ExtractionResult, error)
}

type Service struct {
	rxRepo    repository.PrescriptionRepository
	userRepo  repository.UserRepository
	extractor Extractor
	events    event.Recorder
}

func NewService(rxRepo repository.PrescriptionRepository, userRepo repository.UserRepository, extractor Extractor, events event.Recorder) *Service {
	return &Service{
		rxRepo:    rxRepo,
		userRepo:  userRepo,
		extractor: extractor,
		events:    events,
	}
}

// Upload stores a scanned prescription image as a pending record. The
// clinical fields stay empty until extraction and validation fill them
// in. doctorID is set when a staff member uploads on a patient's behalf.
func (s *Service) Upload(ctx context.Context, patientID uuid.UUID, imageURL string, doctorID *uuid.UUID) (*model.Prescription, error) {
	patient, err := s.userRepo.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	if !patient.IsPatient() {
		return nil, apperrors.Validation("prescriptions can only be uploaded for patients", nil)
	}

	now := time.Now()
	rx := &model.Prescription{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      now.Format("2006-01-02"),
		Status:    model.StatusPendingValidation,
		Medicines: []model.Medicine{},
		ImageURL:  imageURL,
		Diagnosis: processingDiagnosis,
	}

	if err := s.rxRepo.Upsert(ctx, rx); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.events.Record(ctx, model.EventPrescriptionUpload, rx)
	return rx, nil
}

// RunExtraction produces a structured draft for a pending prescription.
// The draft is returned to the caller for review and is NOT persisted;
// only a validation save writes clinical data back to the store.
func (s *Service) RunExtraction(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	rx, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(rx.ImageURL, "data:") {
		rx.Diagnosis = fallbackDiagnosis
		rx.Medicines = append([]model.Medicine(nil), fallbackMedicines...)
		return rx, nil
	}

	mimeType, payload, err := splitDataURL(rx.ImageURL)
	if err != nil {
		return nil, apperrors.Extraction("unreadable prescription image", err)
	}

	result, err := s.extractor.Parse(ctx, payload, mimeType)
	if err != nil {
		return nil, err
	}

	rx.Diagnosis = result.Diagnosis
	rx.Notes = result.Notes
	rx.Medicines = result.Medicines
	if rx.Medicines == nil {
		rx.Medicines = []model.Medicine{}
	}
	return rx, nil
}

// ValidateAndSave replaces a prescription's clinical content with the
// doctor-reviewed version and marks it validated. Saving again after
// validation is allowed and keeps the record validated.
func (s *Service) ValidateAndSave(ctx context.Context, id uuid.UUID, doctorID uuid.UUID, req *model.ValidatePrescriptionRequest) (*model.Prescription, error) {
	rx, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rx.Status == model.StatusDigitalCreated {
		return nil, apperrors.Validation("digitally created prescriptions do not go through validation", nil)
	}

	rx.Diagnosis = req.Diagnosis
	rx.Notes = req.Notes
	rx.Medicines = req.Medicines
	if rx.Medicines == nil {
		rx.Medicines = []model.Medicine{}
	}
	rx.Status = model.StatusValidated
	if rx.DoctorID == nil {
		rx.DoctorID = &doctorID
	}
	rx.UpdatedAt = time.Now()

	if err := s.rxRepo.Upsert(ctx, rx); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.events.Record(ctx, model.EventPrescriptionValidate, rx)
	return rx, nil
}

// CreateDigital records a prescription authored directly by a doctor.
// These are trusted at creation time and never enter validation.
func (s *Service) CreateDigital(ctx context.Context, doctorID, patientID uuid.UUID, req *model.CreateDigitalPrescriptionRequest) (*model.Prescription, error) {
	patient, err := s.userRepo.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	if !patient.IsPatient() {
		return nil, apperrors.Validation("prescriptions can only be created for patients", nil)
	}

	medicines := req.Medicines
	if medicines == nil {
		medicines = []model.Medicine{}
	}

	now := time.Now()
	rx := &model.Prescription{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID: patientID,
		DoctorID:  &doctorID,
		Date:      now.Format("2006-01-02"),
		Status:    model.StatusDigitalCreated,
		Medicines: medicines,
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
	}

	if err := s.rxRepo.Upsert(ctx, rx); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.events.Record(ctx, model.EventPrescriptionDigital, rx)
	return rx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	rx, err := s.rxRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, apperrors.Internal(err)
	}
	return rx, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	list, err := s.rxRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return list, nil
}

func (s *Service) ListPending(ctx context.Context) ([]*model.Prescription, error) {
	list, err := s.rxRepo.ListPending(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return list, nil
}

// splitDataURL splits "data:<mime>;base64,<payload>" into its parts.
func splitDataURL(url string) (mimeType, payload string, err error) {
	header, payload, ok := strings.Cut(url, ",")
	if !ok || payload == "" {
		return "", "", fmt.Errorf("malformed data URL")
	}
	header = strings.TrimPrefix(header, "data:")
	mimeType, _, _ = strings.Cut(header, ";")
	if mimeType == "" {
		return "", "", fmt.Errorf("data URL missing media type")
	}
	return mimeType, payload, nil
}
