package model

import (
	"fmt"

	"github.com/google/uuid"
)

// PrescriptionStatus is the digitization state machine. A record moves
// PENDING_VALIDATION -> VALIDATED exactly once, through validation-save.
// DIGITAL_CREATED is reachable only when a doctor authors a prescription
// directly, never through validation.
type PrescriptionStatus string

const (
	StatusPendingValidation PrescriptionStatus = "PENDING_VALIDATION"
	StatusValidated         PrescriptionStatus = "VALIDATED"
	StatusDigitalCreated    PrescriptionStatus = "DIGITAL_CREATED"
)

// Medicine is a value type owned by exactly one prescription. Identity
// is positional within the owning list. Frequency uses slot notation,
// e.g. "1-0-1" for morning-afternoon-night.
type Medicine struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency" binding:"omitempty,slotfreq"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

// Prescription records a medical encounter, either scanned and digitized
// or authored digitally by a doctor.
type Prescription struct {
	Base
	PatientID uuid.UUID          `json:"patient_id" db:"patient_id"`
	DoctorID  *uuid.UUID         `json:"doctor_id,omitempty" db:"doctor_id"`
	Date      string             `json:"date" db:"date"`
	Status    PrescriptionStatus `json:"status" db:"status"`
	Medicines []Medicine         `json:"medicines"`
	ImageURL  string             `json:"image_url,omitempty" db:"image_url"`
	Diagnosis string             `json:"diagnosis,omitempty" db:"diagnosis"`
	Notes     string             `json:"notes,omitempty" db:"notes"`
}

// AppendMedicine adds a medicine to the end of the list.
func (p *Prescription) AppendMedicine(m Medicine) {
	p.Medicines = append(p.Medicines, m)
}

// UpdateMedicineAt replaces a single field of the medicine at index i.
func (p *Prescription) UpdateMedicineAt(i int, field, value string) error {
	if i < 0 || i >= len(p.Medicines) {
		return fmt.Errorf("medicine index %d out of range", i)
	}
	switch field {
	case "name":
		p.Medicines[i].Name = value
	case "dosage":
		p.Medicines[i].Dosage = value
	case "frequency":
		p.Medicines[i].Frequency = value
	case "duration":
		p.Medicines[i].Duration = value
	case "instructions":
		p.Medicines[i].Instructions = value
	default:
		return fmt.Errorf("unknown medicine field %q", field)
	}
	return nil
}

// RemoveMedicineAt removes the medicine at index i, preserving order.
func (p *Prescription) RemoveMedicineAt(i int) error {
	if i < 0 || i >= len(p.Medicines) {
		return fmt.Errorf("medicine index %d out of range", i)
	}
	p.Medicines = append(p.Medicines[:i], p.Medicines[i+1:]...)
	return nil
}

type UploadPrescriptionRequest struct {
	PatientID string `json:"patient_id" binding:"required,uuid"`
	ImageData string `json:"image_data" binding:"required"`
}

type CreateDigitalPrescriptionRequest struct {
	PatientID string     `json:"patient_id" binding:"required,uuid"`
	Medicines []Medicine `json:"medicines" binding:"required,dive"`
	Diagnosis string     `json:"diagnosis" binding:"required"`
	Notes     string     `json:"notes"`
}

type ValidatePrescriptionRequest struct {
	Medicines []Medicine `json:"medicines" binding:"required,dive"`
	Diagnosis string     `json:"diagnosis"`
	Notes     string     `json:"notes"`
}

// ExtractionResult is the structured bundle returned by the extraction
// client. Draft data only: nothing is persisted until validation-save.
type ExtractionResult struct {
	Medicines []Medicine `json:"medicines"`
	Diagnosis string     `json:"diagnosis"`
	Notes     string     `json:"notes"`
}
