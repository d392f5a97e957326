package dispensing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts the record. A record for an already dispensed
	// prescription is a Conflict.
	Create(ctx context.Context, r *Record) error
	ExistsForPrescription(ctx context.Context, prescriptionID uuid.UUID) (bool, error)
}
