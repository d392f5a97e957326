package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of actors.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDoctor     Role = "doctor"
	RolePatient    Role = "patient"
	RolePharmacist Role = "pharmacist"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient, RolePharmacist:
		return true
	}
	return false
}

// Identity maps to the identity table. Email is the login key.
type Identity struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Profile is the role-specific record of an identity. The four
// implementations below are the only ones; the unexported method keeps it
// that way.
type Profile interface {
	Role() Role
	isProfile()
}

// AdminProfile carries no data and has no table.
type AdminProfile struct{}

// DoctorProfile maps to the doctor_profile table.
type DoctorProfile struct {
	ID             uuid.UUID `db:"id" json:"id"`
	IdentityID     uuid.UUID `db:"identity_id" json:"identity_id"`
	Specialization string    `db:"specialization" json:"specialization"`
	Department     string    `db:"department" json:"department"`
}

// PatientProfile maps to the patient_profile table.
type PatientProfile struct {
	ID         uuid.UUID `db:"id" json:"id"`
	IdentityID uuid.UUID `db:"identity_id" json:"identity_id"`
	Age        *int      `db:"age" json:"age,omitempty"`
	Gender     *string   `db:"gender" json:"gender,omitempty"`
}

// PharmacistProfile maps to the pharmacist_profile table.
type PharmacistProfile struct {
	ID         uuid.UUID `db:"id" json:"id"`
	IdentityID uuid.UUID `db:"identity_id" json:"identity_id"`
}

func (AdminProfile) Role() Role { return RoleAdmin }
func (DoctorProfile) Role() Role { return RoleDoctor }
func (PatientProfile) Role() Role { return RolePatient }
func (PharmacistProfile) Role() Role { return RolePharmacist }

func (AdminProfile) isProfile() {}
func (DoctorProfile) isProfile() {}
func (PatientProfile) isProfile() {}
func (PharmacistProfile) isProfile() {}

// DefaultDepartment is assigned to doctors who sign up without one.
const DefaultDepartment = "General"

// Account is an identity with its profile. Profile is nil when the role
// requires a profile row and none exists.
type Account struct {
	Identity
	Profile Profile `json:"profile,omitempty"`
}

// DoctorView is a doctor profile joined with its identity.
type DoctorView struct {
	ID             uuid.UUID `json:"id"`
	IdentityID     uuid.UUID `json:"identity_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Specialization string    `json:"specialization"`
	Department     string    `json:"department"`
}

// PharmacistView is a pharmacist profile joined with its identity.
type PharmacistView struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"identity_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
}

// Session is returned by signup and login.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Account     *Account  `json:"user"`
}
