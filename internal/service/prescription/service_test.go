package prescription

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
	"github.com/ayurmed/hms-api/internal/repository/memory"
	"github.com/ayurmed/hms-api/internal/service/event"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
)

type mockExtractor struct {
	calls     int
	gotBase64 string
	gotMime   string
	result    *model.ExtractionResult
	err       error
}

func (m *mockExtractor) Parse(ctx context.Context, imageBase64, mimeType string) (*model.ExtractionResult, error) {
	m.calls++
	m.gotBase64 = imageBase64
	m.gotMime = mimeType
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type fixture struct {
	svc       *Service
	rxRepo    repository.PrescriptionRepository
	extractor *mockExtractor
	patient   *model.User
	doctor    *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore(0)
	userRepo := memory.NewUserRepository(store)
	rxRepo := memory.NewPrescriptionRepository(store)

	patient := &model.User{
		Base:     model.Base{ID: uuid.New()},
		Name:     "Rajesh Kumar",
		Email:    "rajesh@example.com",
		Role:     model.RolePatient,
		HealthID: "PID-1001",
	}
	doctor := &model.User{
		Base:  model.Base{ID: uuid.New()},
		Name:  "Dr. Anjali Gupta",
		Email: "anjali@ayurmed.in",
		Role:  model.RoleDoctor,
	}
	require.NoError(t, userRepo.Create(context.Background(), patient))
	require.NoError(t, userRepo.Create(context.Background(), doctor))

	extractor := &mockExtractor{}
	return &fixture{
		svc:       NewService(rxRepo, userRepo, extractor, event.Noop{}),
		rxRepo:    rxRepo,
		extractor: extractor,
		patient:   patient,
		doctor:    doctor,
	}
}

func TestUpload(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,AAAA", nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendingValidation, rx.Status)
	assert.Equal(t, processingDiagnosis, rx.Diagnosis)
	assert.NotNil(t, rx.Medicines)
	assert.Empty(t, rx.Medicines)
	assert.Nil(t, rx.DoctorID)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, rx.Date)

	stored, err := f.rxRepo.Get(context.Background(), rx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingValidation, stored.Status)
}

func TestUploadByDoctorSetsAuthor(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,AAAA", &f.doctor.ID)
	require.NoError(t, err)
	require.NotNil(t, rx.DoctorID)
	assert.Equal(t, f.doctor.ID, *rx.DoctorID)
}

func TestUploadRejectsUnknownOrNonPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), uuid.New(), "data:image/png;base64,AAAA", nil)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))

	_, err = f.svc.Upload(context.Background(), f.doctor.ID, "data:image/png;base64,AAAA", nil)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestRunExtractionEmbeddedImage(t *testing.T) {
	f := newFixture(t)
	f.extractor.result = &model.ExtractionResult{
		Diagnosis: "Viral Fever",
		Notes:     "Plenty of fluids",
		Medicines: []model.Medicine{
			{Name: "Dolo 650", Dosage: "650mg", Frequency: "1-1-1", Duration: "3 days", Instructions: "After food"},
		},
	}

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/jpeg;base64,QkFTRTY0", nil)
	require.NoError(t, err)

	draft, err := f.svc.RunExtraction(context.Background(), rx.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.extractor.calls)
	assert.Equal(t, "image/jpeg", f.extractor.gotMime)
	assert.Equal(t, "QkFTRTY0", f.extractor.gotBase64)

	assert.Equal(t, "Viral Fever", draft.Diagnosis)
	assert.Equal(t, "Plenty of fluids", draft.Notes)
	require.Len(t, draft.Medicines, 1)
	assert.Equal(t, "Dolo 650", draft.Medicines[0].Name)

	// Drafts are not persisted; the stored record is still the upload.
	stored, err := f.rxRepo.Get(context.Background(), rx.ID)
	require.NoError(t, err)
	assert.Equal(t, processingDiagnosis, stored.Diagnosis)
	assert.Empty(t, stored.Medicines)
}

func TestRunExtractionPlainURLFallback(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "https://picsum.photos/400/600", nil)
	require.NoError(t, err)

	draft, err := f.svc.RunExtraction(context.Background(), rx.ID)
	require.NoError(t, err)

	assert.Zero(t, f.extractor.calls)
	assert.Equal(t, fallbackDiagnosis, draft.Diagnosis)
	require.Len(t, draft.Medicines, 1)
	assert.Equal(t, "Paracetamol", draft.Medicines[0].Name)
	assert.Equal(t, "1-0-1", draft.Medicines[0].Frequency)
}

func TestRunExtractionFailureLeavesRecordUntouched(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = apperrors.Extraction("model returned garbage", errors.New("boom"))

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,AAAA", nil)
	require.NoError(t, err)

	_, err = f.svc.RunExtraction(context.Background(), rx.ID)
	assert.Equal(t, apperrors.ErrExtraction, apperrors.CodeOf(err))

	stored, err := f.rxRepo.Get(context.Background(), rx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingValidation, stored.Status)
	assert.Equal(t, processingDiagnosis, stored.Diagnosis)
}

func TestRunExtractionMalformedDataURL(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64", nil)
	require.NoError(t, err)

	_, err = f.svc.RunExtraction(context.Background(), rx.ID)
	assert.Equal(t, apperrors.ErrExtraction, apperrors.CodeOf(err))
	assert.Zero(t, f.extractor.calls)
}

func TestValidateAndSave(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,AAAA", nil)
	require.NoError(t, err)

	saved, err := f.svc.ValidateAndSave(context.Background(), rx.ID, f.doctor.ID, &model.ValidatePrescriptionRequest{
		Diagnosis: "Hypertension",
		Notes:     "Review in 2 weeks",
		Medicines: []model.Medicine{
			{Name: "Amlodipine", Dosage: "5mg", Frequency: "1-0-0", Duration: "30 days", Instructions: "Morning"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusValidated, saved.Status)
	assert.Equal(t, "Hypertension", saved.Diagnosis)
	require.NotNil(t, saved.DoctorID)
	assert.Equal(t, f.doctor.ID, *saved.DoctorID)

	stored, err := f.rxRepo.Get(context.Background(), rx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusValidated, stored.Status)
	require.Len(t, stored.Medicines, 1)
	assert.Equal(t, "Amlodipine", stored.Medicines[0].Name)
}

func TestValidateAndSaveKeepsOriginalAuthor(t *testing.T) {
	f := newFixture(t)

	uploader := f.doctor.ID
	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,AAAA", &uploader)
	require.NoError(t, err)

	other := uuid.New()
	saved, err := f.svc.ValidateAndSave(context.Background(), rx.ID, other, &model.ValidatePrescriptionRequest{
		Diagnosis: "Hypertension",
		Medicines: []model.Medicine{},
	})
	require.NoError(t, err)
	require.NotNil(t, saved.DoctorID)
	assert.Equal(t, uploader, *saved.DoctorID)
}

func TestValidateAndSaveIsRepeatable(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,AAAA", nil)
	require.NoError(t, err)

	req := &model.ValidatePrescriptionRequest{Diagnosis: "Migraine", Medicines: []model.Medicine{}}
	_, err = f.svc.ValidateAndSave(context.Background(), rx.ID, f.doctor.ID, req)
	require.NoError(t, err)

	req.Diagnosis = "Migraine with aura"
	saved, err := f.svc.ValidateAndSave(context.Background(), rx.ID, f.doctor.ID, req)
	require.NoError(t, err)
	assert.Equal(t, model.StatusValidated, saved.Status)
	assert.Equal(t, "Migraine with aura", saved.Diagnosis)
}

func TestValidateAndSaveNilMedicinesBecomesEmpty(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,AAAA", nil)
	require.NoError(t, err)

	saved, err := f.svc.ValidateAndSave(context.Background(), rx.ID, f.doctor.ID, &model.ValidatePrescriptionRequest{
		Diagnosis: "Follow-up",
	})
	require.NoError(t, err)
	assert.NotNil(t, saved.Medicines)
	assert.Empty(t, saved.Medicines)
}

func TestValidateAndSaveUnknownPrescription(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ValidateAndSave(context.Background(), uuid.New(), f.doctor.ID, &model.ValidatePrescriptionRequest{
		Diagnosis: "Hypertension",
		Medicines: []model.Medicine{},
	})
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestValidateAndSaveRejectsDigitalRecords(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.CreateDigital(context.Background(), f.doctor.ID, f.patient.ID, &model.CreateDigitalPrescriptionRequest{
		Diagnosis: "Annual checkup",
		Medicines: []model.Medicine{},
	})
	require.NoError(t, err)

	_, err = f.svc.ValidateAndSave(context.Background(), rx.ID, f.doctor.ID, &model.ValidatePrescriptionRequest{
		Diagnosis: "Annual checkup",
		Medicines: []model.Medicine{},
	})
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestCreateDigital(t *testing.T) {
	f := newFixture(t)

	rx, err := f.svc.CreateDigital(context.Background(), f.doctor.ID, f.patient.ID, &model.CreateDigitalPrescriptionRequest{
		Diagnosis: "Seasonal Allergy",
		Notes:     "Avoid dust exposure",
		Medicines: []model.Medicine{
			{Name: "Cetirizine", Dosage: "10mg", Frequency: "0-0-1", Duration: "7 days", Instructions: "At bedtime"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDigitalCreated, rx.Status)
	require.NotNil(t, rx.DoctorID)
	assert.Equal(t, f.doctor.ID, *rx.DoctorID)
	assert.Empty(t, rx.ImageURL)

	stored, err := f.rxRepo.Get(context.Background(), rx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDigitalCreated, stored.Status)
}

func TestCreateDigitalUnknownPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateDigital(context.Background(), f.doctor.ID, uuid.New(), &model.CreateDigitalPrescriptionRequest{
		Diagnosis: "Checkup",
		Medicines: []model.Medicine{},
	})
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestListForPatientAndPending(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,AAAA", nil)
	require.NoError(t, err)
	_, err = f.svc.ValidateAndSave(context.Background(), first.ID, f.doctor.ID, &model.ValidatePrescriptionRequest{
		Diagnosis: "Hypertension",
		Medicines: []model.Medicine{},
	})
	require.NoError(t, err)

	second, err := f.svc.Upload(context.Background(), f.patient.ID, "data:image/png;base64,BBBB", nil)
	require.NoError(t, err)

	all, err := f.svc.ListForPatient(context.Background(), f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}

func TestSplitDataURL(t *testing.T) {
	mime, payload, err := splitDataURL("data:image/webp;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mime)
	assert.Equal(t, "aGVsbG8=", payload)

	_, _, err = splitDataURL("data:image/webp;base64,")
	assert.Error(t, err)

	_, _, err = splitDataURL("data:;base64,aGVsbG8=")
	assert.Error(t, err)
}
