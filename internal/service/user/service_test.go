package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/internal/repository"
	"github.com/ayurmed/hms-api/internal/repository/memory"
	"github.com/ayurmed/hms-api/internal/service/event"
	apperrors "github.com/ayurmed/hms-api/pkg/errors"
	"github.com/ayurmed/hms-api/pkg/idgen"
)

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) SendWelcome(to, name, role, credential string) error {
	m.sent = append(m.sent, to)
	return nil
}

func newService(t *testing.T) (*Service, repository.UserRepository, *recordingMailer) {
	t.Helper()

	store := memory.NewStore(0)
	userRepo := memory.NewUserRepository(store)
	rxRepo := memory.NewPrescriptionRepository(store)
	labRepo := memory.NewLabReportRepository(store)

	mailer := &recordingMailer{}
	svc := NewService(userRepo, rxRepo, labRepo, idgen.NewAllocator(), mailer, event.Noop{})
	return svc, userRepo, mailer
}

func TestCreateDoctor(t *testing.T) {
	svc, userRepo, mailer := newService(t)

	doctor, err := svc.CreateDoctor(context.Background(), &model.CreateDoctorRequest{
		Name:           "Dr. Anjali Gupta",
		Email:          "anjali@ayurmed.in",
		Specialization: "Cardiology",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleDoctor, doctor.Role)
	assert.Regexp(t, `^IMC-\d{6}$`, doctor.LicenseNumber)
	assert.Empty(t, doctor.PasswordHash)
	assert.Equal(t, []string{"anjali@ayurmed.in"}, mailer.sent)

	stored, err := userRepo.GetByEmail(context.Background(), "anjali@ayurmed.in")
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, stored.ID)
}

func TestCreateDoctorHashesPassword(t *testing.T) {
	svc, _, _ := newService(t)

	doctor, err := svc.CreateDoctor(context.Background(), &model.CreateDoctorRequest{
		Name:           "Dr. Vikram Rao",
		Email:          "vikram@ayurmed.in",
		Specialization: "Neurology",
		Password:       "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, doctor.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(doctor.PasswordHash), []byte("correct horse")))
}

func TestCreateDoctorDuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)

	req := &model.CreateDoctorRequest{Name: "Dr. A", Email: "dup@ayurmed.in", Specialization: "ENT"}
	_, err := svc.CreateDoctor(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateDoctor(context.Background(), req)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestCreatePatient(t *testing.T) {
	svc, userRepo, mailer := newService(t)

	patient, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		Name:       "Rajesh Kumar",
		Age:        45,
		Gender:     "Male",
		BloodGroup: "B+",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RolePatient, patient.Role)
	assert.Regexp(t, `^PID-\d{4}$`, patient.HealthID)
	assert.Equal(t, "rajesh.kumar@ayurmed.in", patient.Email)
	assert.Equal(t, []string{"rajesh.kumar@ayurmed.in"}, mailer.sent)

	found, err := userRepo.GetByHealthID(context.Background(), patient.HealthID)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, found.ID)
}

func TestCreatePatientEmailCollisionGetsSuffix(t *testing.T) {
	svc, _, _ := newService(t)

	req := &model.CreatePatientRequest{Name: "Rajesh Kumar", Age: 45, Gender: "Male", BloodGroup: "B+"}
	first, err := svc.CreatePatient(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.CreatePatient(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "rajesh.kumar@ayurmed.in", first.Email)
	assert.Equal(t, "rajesh.kumar1@ayurmed.in", second.Email)
	assert.NotEqual(t, first.HealthID, second.HealthID)
}

func TestFindPatientByHealthID(t *testing.T) {
	svc, _, _ := newService(t)

	patient, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		Name: "Meera Nair", Age: 38, Gender: "Female", BloodGroup: "O+",
	})
	require.NoError(t, err)

	found, err := svc.FindPatientByHealthID(context.Background(), patient.HealthID)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, found.ID)

	_, err = svc.FindPatientByHealthID(context.Background(), "PID-0000")
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestListAndCounts(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.CreateDoctor(context.Background(), &model.CreateDoctorRequest{
		Name: "Dr. A", Email: "a@ayurmed.in", Specialization: "ENT",
	})
	require.NoError(t, err)
	_, err = svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		Name: "P One", Age: 30, Gender: "Male", BloodGroup: "A+",
	})
	require.NoError(t, err)
	_, err = svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		Name: "P Two", Age: 31, Gender: "Female", BloodGroup: "A-",
	})
	require.NoError(t, err)

	doctors, err := svc.ListDoctors(context.Background())
	require.NoError(t, err)
	assert.Len(t, doctors, 1)

	patients, err := svc.ListPatients(context.Background())
	require.NoError(t, err)
	assert.Len(t, patients, 2)

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Doctors)
	assert.Equal(t, 2, counts.Patients)
	assert.Equal(t, 0, counts.Prescriptions)
}
