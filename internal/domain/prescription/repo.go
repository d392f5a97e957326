package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists prescriptions and their items. Lookups return the
// items ordered by position.
type Repository interface {
	// Create inserts the prescription row. A second prescription for the
	// same appointment is a Conflict.
	Create(ctx context.Context, p *Prescription) error
	AddItems(ctx context.Context, prescriptionID uuid.UUID, items []*Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// ListUndispensed returns prescriptions that have no dispensing record,
	// oldest first.
	ListUndispensed(ctx context.Context) ([]*Prescription, error)
}
