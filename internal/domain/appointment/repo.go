package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists appointments and the per-(doctor, date) token
// counters. Missing rows are reported as apperr NotFound.
type Repository interface {
	// NextToken increments the counter for (doctorID, date) and returns the
	// new value. Inside a transaction the counter row stays locked until
	// commit.
	NextToken(ctx context.Context, doctorID uuid.UUID, date string) (int, error)
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// GetForUpdate reads the bare appointment row and locks it.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	// ListQueue returns scheduled appointments for doctorID on date in
	// token order.
	ListQueue(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error)
}
