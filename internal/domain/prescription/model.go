package prescription

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Prescription maps to the prescription table. DoctorID and PatientID are
// copied from the appointment at issue time.
type Prescription struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Notes         *string   `db:"notes" json:"notes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	Items         []*Item   `json:"items"`

	DoctorName  string `json:"doctor_name,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

// Item is one prescribed medicine. Position keeps insertion order.
type Item struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Position       int       `db:"position" json:"position"`
	MedicineName   string    `db:"medicine_name" json:"medicine_name"`
	Dosage         string    `db:"dosage" json:"dosage"`
	Frequency      string    `db:"frequency" json:"frequency"`
	Duration       string    `db:"duration" json:"duration"`
}

const maxItemFieldLen = 255

// oversize returns the first field longer than its column.
func (it *Item) oversize() (string, bool) {
	for _, f := range []struct{ name, v string }{
		{"medicine_name", it.MedicineName},
		{"dosage", it.Dosage},
		{"frequency", it.Frequency},
		{"duration", it.Duration},
	} {
		if utf8.RuneCountInString(f.v) > maxItemFieldLen {
			return f.name, true
		}
	}
	return "", false
}
