package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/db"
)

// DoctorChecker reports whether a doctor profile exists.
type DoctorChecker interface {
	DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error)
}

type Service struct {
	repo    Repository
	tx      db.TxManager
	doctors DoctorChecker
	loc     *time.Location
	now     func() time.Time
	logger  zerolog.Logger
}

func NewService(repo Repository, tx db.TxManager, doctors DoctorChecker, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		doctors: doctors,
		loc:     loc,
		now:     time.Now,
		logger:  logger.With().Str("component", "appointment").Logger(),
	}
}

// BookInput is a booking request. Time accepts HH:MM or HH:MM:SS.
type BookInput struct {
	DoctorID uuid.UUID
	Date     string
	Time     string
}

// Book allocates the next token for the doctor and date and records a
// scheduled appointment. Allocation and insert share one transaction.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, in BookInput) (*Appointment, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	clock, err := ParseTime(in.Time)
	if err != nil {
		return nil, err
	}

	ok, err := s.doctors.DoctorExists(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("doctor not found")
	}

	appt := &Appointment{
		PatientID: patientID,
		DoctorID:  in.DoctorID,
		Date:      date,
		Time:      clock,
		Status:    StatusScheduled,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		token, err := s.repo.NextToken(ctx, appt.DoctorID, appt.Date)
		if err != nil {
			return err
		}
		appt.TokenNumber = token
		return s.repo.Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", appt.DoctorID.String()).
		Str("date", appt.Date).
		Int("token", appt.TokenNumber).
		Msg("appointment booked")

	full, err := s.repo.GetByID(ctx, appt.ID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("appointment_id", appt.ID.String()).
			Msg("reload after booking failed, returning appointment without joins")
		return appt, nil
	}
	return full, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// Cancel marks the patient's appointment cancelled. Appointments owned by
// someone else are reported as missing.
func (s *Service) Cancel(ctx context.Context, patientID, id uuid.UUID) error {
	return s.transition(ctx, id, StatusCancelled, func(a *Appointment) bool {
		return a.PatientID == patientID
	})
}

// Complete marks the doctor's appointment completed.
func (s *Service) Complete(ctx context.Context, doctorID, id uuid.UUID) error {
	return s.transition(ctx, id, StatusCompleted, func(a *Appointment) bool {
		return a.DoctorID == doctorID
	})
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next Status, owns func(*Appointment) bool) error {
	var prev Status
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !owns(a) {
			return apperr.NotFound("appointment not found")
		}
		if !a.Status.CanTransition(next) {
			return apperr.Conflict("appointment is %s", a.Status)
		}
		prev = a.Status
		return s.repo.UpdateStatus(ctx, id, next)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("from", string(prev)).
		Str("to", string(next)).
		Msg("appointment status changed")
	return nil
}

// TodayQueue lists the doctor's scheduled appointments for the current
// date in the service location, in token order.
func (s *Service) TodayQueue(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListQueue(ctx, doctorID, s.Today())
}

// Today is the current civil date in the service location.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// ParseDate checks a YYYY-MM-DD date and returns it unchanged.
func ParseDate(raw string) (string, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", apperr.Validation("date must be YYYY-MM-DD")
	}
	return t.Format(DateLayout), nil
}

// ParseTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func ParseTime(raw string) (string, error) {
	for _, layout := range []string{TimeLayout, "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", apperr.Validation("time must be HH:MM or HH:MM:SS")
}
