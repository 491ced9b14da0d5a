package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayurmed/hms-api/internal/model"
)

// Seed loads the demo roster so a fresh process has something to log
// into. Returns the seeded users keyed by role for convenience.
func (s *Store) Seed() map[model.UserRole]*model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	patient := &model.User{
		Base:       model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:       "Rajesh Kumar",
		Email:      "rajesh@example.com",
		Role:       model.RolePatient,
		HealthID:   "PID-1001",
		Age:        45,
		Gender:     "Male",
		BloodGroup: "O+",
	}
	doctor := &model.User{
		Base:           model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:           "Dr. Anjali Gupta",
		Email:          "anjali@hospital.com",
		Role:           model.RoleDoctor,
		Specialization: "Cardiologist",
		LicenseNumber:  "IMC-123456",
	}
	admin := &model.User{
		Base:  model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:  "Admin User",
		Email: "admin@hospital.com",
		Role:  model.RoleAdmin,
	}

	s.users[patient.ID] = patient
	s.users[doctor.ID] = doctor
	s.users[admin.ID] = admin

	validated := &model.Prescription{
		Base:      model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PatientID: patient.ID,
		DoctorID:  &doctor.ID,
		Date:      "2023-10-15",
		Status:    model.StatusValidated,
		Diagnosis: "Hypertension",
		Medicines: []model.Medicine{
			{Name: "Amlodipine", Dosage: "5mg", Frequency: "1-0-0", Duration: "30 days", Instructions: "After breakfast"},
		},
	}
	pending := &model.Prescription{
		Base:      model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PatientID: patient.ID,
		Date:      "2024-05-20",
		Status:    model.StatusPendingValidation,
		Diagnosis: "Pending OCR",
		Medicines: []model.Medicine{},
		ImageURL:  "https://picsum.photos/400/600",
	}
	s.prescriptions[validated.ID] = validated
	s.prescriptions[pending.ID] = pending

	s.labReports[patient.ID] = []*model.LabReport{
		{ID: "lab1", Date: "2024-01-12", TestName: "HbA1c", Result: "5.9%", NormalRange: "4.0-5.6%"},
		{ID: "lab2", Date: "2024-01-12", TestName: "Lipid Profile", Result: "LDL 128 mg/dL", NormalRange: "< 100 mg/dL"},
	}

	return map[model.UserRole]*model.User{
		model.RolePatient: patient,
		model.RoleDoctor:  doctor,
		model.RoleAdmin:   admin,
	}
}
