package prescription

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospify/hospify/internal/domain/appointment"
	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/db"
)

// AppointmentStore is the part of the appointment ledger issuance touches.
type AppointmentStore interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status appointment.Status) error
}

type Service struct {
	repo   Repository
	appts  AppointmentStore
	tx     db.TxManager
	logger zerolog.Logger
}

func NewService(repo Repository, appts AppointmentStore, tx db.TxManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		appts:  appts,
		tx:     tx,
		logger: logger.With().Str("component", "prescription").Logger(),
	}
}

type ItemInput struct {
	MedicineName string
	Dosage       string
	Frequency    string
	Duration     string
}

type IssueInput struct {
	AppointmentID uuid.UUID
	Notes         *string
	Items         []ItemInput
}

// Issue records a prescription for the doctor's appointment and marks the
// appointment completed. The appointment row stays locked for the whole
// transaction; any failure leaves no prescription, no items and the
// appointment status unchanged.
func (s *Service) Issue(ctx context.Context, doctorID uuid.UUID, in IssueInput) (*Prescription, error) {
	items := make([]*Item, 0, len(in.Items))
	for i, it := range in.Items {
		item := &Item{
			Position:     i,
			MedicineName: strings.TrimSpace(it.MedicineName),
			Dosage:       strings.TrimSpace(it.Dosage),
			Frequency:    strings.TrimSpace(it.Frequency),
			Duration:     strings.TrimSpace(it.Duration),
		}
		if item.MedicineName == "" {
			return nil, apperr.Validation("items[%d]: medicine_name is required", i)
		}
		if f, ok := item.oversize(); ok {
			return nil, apperr.Validation("items[%d]: %s must be at most %d characters", i, f, maxItemFieldLen)
		}
		items = append(items, item)
	}

	rx := &Prescription{AppointmentID: in.AppointmentID, Notes: in.Notes}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		appt, err := s.appts.GetForUpdate(ctx, in.AppointmentID)
		if err != nil {
			return err
		}
		if appt.DoctorID != doctorID {
			return apperr.Forbidden("appointment belongs to another doctor")
		}
		if !appt.Status.CanTransition(appointment.StatusCompleted) {
			return apperr.Conflict("appointment is %s", appt.Status)
		}

		rx.DoctorID = appt.DoctorID
		rx.PatientID = appt.PatientID
		if err := s.repo.Create(ctx, rx); err != nil {
			return err
		}
		if err := s.repo.AddItems(ctx, rx.ID, items); err != nil {
			return err
		}
		rx.Items = items
		return s.appts.UpdateStatus(ctx, appt.ID, appointment.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("prescription_id", rx.ID.String()).
		Str("appointment_id", rx.AppointmentID.String()).
		Int("items", len(rx.Items)).
		Msg("prescription issued")

	full, err := s.repo.GetByID(ctx, rx.ID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("prescription_id", rx.ID.String()).
			Msg("reload after issue failed, returning prescription without names")
		return rx, nil
	}
	return full, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

// ListUndispensed returns every prescription without a dispensing record.
func (s *Service) ListUndispensed(ctx context.Context) ([]*Prescription, error) {
	return s.repo.ListUndispensed(ctx)
}
