package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Civil date and time layouts. Dates carry no zone; "today" is computed in
// the configured location.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions lists the accepted status changes. Terminal states may be
// overwritten by the other terminal state; nothing returns to scheduled.
var transitions = map[Status]map[Status]bool{
	StatusScheduled: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {StatusCompleted: true, StatusCancelled: true},
	StatusCancelled: {StatusCancelled: true, StatusCompleted: true},
}

// CanTransition reports whether an appointment in s may move to next.
func (s Status) CanTransition(next Status) bool {
	return transitions[s][next]
}

// Appointment maps to the appointment table. TokenNumber is the 1-based
// position in the doctor's queue for Date and is never reused.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date        string    `db:"appt_date" json:"date"`
	Time        string    `db:"appt_time" json:"time"`
	TokenNumber int       `db:"token_number" json:"token_number"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Filled by list and get queries.
	Doctor  *DoctorSummary  `json:"doctor,omitempty"`
	Patient *PatientSummary `json:"patient,omitempty"`
}

type DoctorSummary struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Department     string `json:"department"`
}

type PatientSummary struct {
	Name string `json:"name"`
}
