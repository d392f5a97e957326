package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const baseCols = `a.id, a.patient_id, a.doctor_id, a.appt_date::text, to_char(a.appt_time, 'HH24:MI:SS'),
	a.token_number, a.status, a.created_at, a.updated_at`

const joinedSelect = `SELECT ` + baseCols + `, di.name, d.specialization, d.department, pi.name
	FROM appointment a
	JOIN doctor_profile d ON d.id = a.doctor_id
	JOIN identity di ON di.id = d.identity_id
	JOIN patient_profile p ON p.id = a.patient_id
	JOIN identity pi ON pi.id = p.identity_id`

func scanBase(row pgx.Row, extra ...any) (*Appointment, error) {
	var a Appointment
	dest := append([]any{&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time,
		&a.TokenNumber, &a.Status, &a.CreatedAt, &a.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, db.Translate(err, "appointment")
	}
	return &a, nil
}

func scanJoined(row pgx.Row) (*Appointment, error) {
	var doc DoctorSummary
	var pat PatientSummary
	a, err := scanBase(row, &doc.Name, &doc.Specialization, &doc.Department, &pat.Name)
	if err != nil {
		return nil, err
	}
	a.Doctor, a.Patient = &doc, &pat
	return a, nil
}

func (r *repoPG) NextToken(ctx context.Context, doctorID uuid.UUID, date string) (int, error) {
	var token int
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment_token_counter (doctor_id, appt_date, last_token)
		VALUES ($1, $2::text::date, 1)
		ON CONFLICT (doctor_id, appt_date)
		DO UPDATE SET last_token = appointment_token_counter.last_token + 1
		RETURNING last_token`, doctorID, date).Scan(&token)
	if err != nil {
		return 0, db.Translate(err, "doctor")
	}
	return token, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, appt_date, appt_time, token_number, status)
		VALUES ($1, $2, $3, $4::text::date, $5::text::time, $6, $7)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.TokenNumber, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err, "appointment_token_key") {
		return apperr.Wrap(apperr.KindConflict, err, "token already allocated")
	}
	return db.Translate(err, "appointment")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanJoined(r.conn(ctx).QueryRow(ctx, joinedSelect+` WHERE a.id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanBase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+baseCols+` FROM appointment a WHERE a.id = $1 FOR UPDATE`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return db.Translate(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx, joinedSelect+`
		WHERE a.patient_id = $1
		ORDER BY a.appt_date, a.appt_time, a.token_number`, patientID)
}

func (r *repoPG) ListQueue(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	return r.list(ctx, joinedSelect+`
		WHERE a.doctor_id = $1 AND a.appt_date = $2::text::date AND a.status = 'scheduled'
		ORDER BY a.token_number`, doctorID, date)
}

func (r *repoPG) list(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Appointment{}
	for rows.Next() {
		a, err := scanJoined(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
