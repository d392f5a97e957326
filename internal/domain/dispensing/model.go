package dispensing

import (
	"time"

	"github.com/google/uuid"

	"github.com/hospify/hospify/internal/domain/prescription"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentPaid
}

// Record maps to the dispensing_record table. At most one exists per
// prescription.
type Record struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	PrescriptionID uuid.UUID     `db:"prescription_id" json:"prescription_id"`
	PharmacistID   uuid.UUID     `db:"pharmacist_id" json:"pharmacist_id"`
	TotalAmount    float64       `db:"total_amount" json:"total_amount"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`

	Prescription *prescription.Prescription `json:"prescription,omitempty"`
}
