package model

// UserRole determines which dashboard and operations a user can reach.
type UserRole string

const (
	RolePatient UserRole = "PATIENT"
	RoleDoctor  UserRole = "DOCTOR"
	RoleAdmin   UserRole = "ADMIN"
)

// User is the identity record shared by patients, doctors and admins.
// Patient records carry a health ID, the only lookup key doctors use;
// doctor records carry specialization and license number.
type User struct {
	Base
	Name         string   `json:"name" db:"name"`
	Email        string   `json:"email" db:"email"`
	Role         UserRole `json:"role" db:"role"`
	PasswordHash string   `json:"-" db:"password_hash"`
	AvatarURL    string   `json:"avatar_url,omitempty" db:"avatar_url"`

	// Patient fields
	HealthID   string `json:"health_id,omitempty" db:"health_id"`
	Age        int    `json:"age,omitempty" db:"age"`
	Gender     string `json:"gender,omitempty" db:"gender"`
	BloodGroup string `json:"blood_group,omitempty" db:"blood_group"`

	// Doctor fields
	Specialization string `json:"specialization,omitempty" db:"specialization"`
	LicenseNumber  string `json:"license_number,omitempty" db:"license_number"`
}

// IsPatient reports whether the user holds the patient role.
func (u *User) IsPatient() bool { return u.Role == RolePatient }

// IsStaff reports whether the user is a doctor or an admin.
func (u *User) IsStaff() bool { return u.Role == RoleDoctor || u.Role == RoleAdmin }

type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type CreateDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Specialization string `json:"specialization" binding:"required"`
	Password       string `json:"password" binding:"omitempty,min=8"`
}

type CreatePatientRequest struct {
	Name       string `json:"name" binding:"required"`
	Age        int    `json:"age" binding:"required,gt=0"`
	Gender     string `json:"gender" binding:"required"`
	BloodGroup string `json:"blood_group" binding:"required"`
}

// Counts is the admin dashboard roll-up.
type Counts struct {
	Doctors       int `json:"doctors"`
	Patients      int `json:"patients"`
	Prescriptions int `json:"prescriptions"`
}

// LabReport is a read-only entry on the patient dashboard.
type LabReport struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	TestName    string `json:"test_name"`
	Result      string `json:"result"`
	NormalRange string `json:"normal_range"`
}
