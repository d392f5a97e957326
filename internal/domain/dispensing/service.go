package dispensing

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospify/hospify/internal/domain/prescription"
	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/db"
)

// Prescriptions reads issued prescriptions.
type Prescriptions interface {
	Get(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
	ListUndispensed(ctx context.Context) ([]*prescription.Prescription, error)
}

type Service struct {
	repo   Repository
	rx     Prescriptions
	tx     db.TxManager
	logger zerolog.Logger
}

func NewService(repo Repository, rx Prescriptions, tx db.TxManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		rx:     rx,
		tx:     tx,
		logger: logger.With().Str("component", "dispensing").Logger(),
	}
}

// ListPending returns prescriptions not yet dispensed. It is recomputed on
// every call.
func (s *Service) ListPending(ctx context.Context) ([]*prescription.Prescription, error) {
	return s.rx.ListUndispensed(ctx)
}

// MaxTotalAmount is the largest amount the ledger's NUMERIC(12,2) column holds.
const MaxTotalAmount = 9999999999.99

type DispenseInput struct {
	PrescriptionID uuid.UUID
	TotalAmount    float64
	PaymentStatus  PaymentStatus
}

// Dispense records that the pharmacist handed out a prescription. Each
// prescription is dispensed at most once; later attempts are a Conflict.
func (s *Service) Dispense(ctx context.Context, pharmacistID uuid.UUID, in DispenseInput) (*Record, error) {
	if in.PaymentStatus == "" {
		in.PaymentStatus = PaymentPending
	}
	if !in.PaymentStatus.Valid() {
		return nil, apperr.Validation("payment_status must be one of [pending paid]")
	}
	if in.TotalAmount < 0 || math.IsNaN(in.TotalAmount) || math.IsInf(in.TotalAmount, 0) {
		return nil, apperr.Validation("total_amount must be a non-negative amount")
	}
	amount := math.Round(in.TotalAmount*100) / 100
	if amount > MaxTotalAmount {
		return nil, apperr.Validation("total_amount must be at most %.2f", MaxTotalAmount)
	}

	rec := &Record{
		PrescriptionID: in.PrescriptionID,
		PharmacistID:   pharmacistID,
		TotalAmount:    amount,
		PaymentStatus:  in.PaymentStatus,
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rx, err := s.rx.Get(ctx, in.PrescriptionID)
		if err != nil {
			return err
		}
		done, err := s.repo.ExistsForPrescription(ctx, in.PrescriptionID)
		if err != nil {
			return err
		}
		if done {
			return apperr.Conflict("prescription already dispensed")
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		rec.Prescription = rx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("dispensing_id", rec.ID.String()).
		Str("prescription_id", rec.PrescriptionID.String()).
		Str("payment_status", string(rec.PaymentStatus)).
		Msg("prescription dispensed")
	return rec, nil
}
