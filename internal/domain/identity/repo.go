package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists identities and role profiles. Lookups of missing rows
// return apperr NotFound. A list limit of 0 returns every row.
type Repository interface {
	CreateIdentity(ctx context.Context, i *Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error

	CreateDoctor(ctx context.Context, d *DoctorProfile) error
	CreatePatient(ctx context.Context, p *PatientProfile) error
	CreatePharmacist(ctx context.Context, p *PharmacistProfile) error

	DoctorByIdentity(ctx context.Context, identityID uuid.UUID) (*DoctorProfile, error)
	PatientByIdentity(ctx context.Context, identityID uuid.UUID) (*PatientProfile, error)
	PharmacistByIdentity(ctx context.Context, identityID uuid.UUID) (*PharmacistProfile, error)

	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*DoctorView, error)
	DeleteDoctor(ctx context.Context, doctorID uuid.UUID) error
	ListDoctors(ctx context.Context, limit, offset int) ([]*DoctorView, int, error)
	ListPharmacists(ctx context.Context, limit, offset int) ([]*PharmacistView, int, error)
}
