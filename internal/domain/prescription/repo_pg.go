package prescription

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

const selectPrescription = `SELECT rx.id, rx.appointment_id, rx.doctor_id, rx.patient_id, rx.notes, rx.created_at,
	di.name, pi.name
	FROM prescription rx
	JOIN doctor_profile d ON d.id = rx.doctor_id
	JOIN identity di ON di.id = d.identity_id
	JOIN patient_profile p ON p.id = rx.patient_id
	JOIN identity pi ON pi.id = p.identity_id`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.DoctorID, &p.PatientID, &p.Notes, &p.CreatedAt,
		&p.DoctorName, &p.PatientName)
	if err != nil {
		return nil, db.Translate(err, "prescription")
	}
	p.Items = []*Item{}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription (id, appointment_id, doctor_id, patient_id, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		p.ID, p.AppointmentID, p.DoctorID, p.PatientID, p.Notes).Scan(&p.CreatedAt)
	if db.IsUniqueViolation(err, "prescription_appointment_key") {
		return apperr.Wrap(apperr.KindConflict, err, "prescription already issued for this appointment")
	}
	return db.Translate(err, "prescription")
}

func (r *repoPG) AddItems(ctx context.Context, prescriptionID uuid.UUID, items []*Item) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		it.ID = uuid.New()
		it.PrescriptionID = prescriptionID
		batch.Queue(`
			INSERT INTO prescription_item (id, prescription_id, position, medicine_name, dosage, frequency, duration)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, it.PrescriptionID, it.Position, it.MedicineName, it.Dosage, it.Frequency, it.Duration)
	}

	br := r.conn(ctx).SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return db.Translate(err, "prescription item")
		}
	}
	return br.Close()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, selectPrescription+` WHERE rx.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*Prescription{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) ListUndispensed(ctx context.Context) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, selectPrescription+`
		WHERE NOT EXISTS (SELECT 1 FROM dispensing_record dr WHERE dr.prescription_id = rx.id)
		ORDER BY rx.created_at, rx.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*Prescription{}
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// attachItems loads the items of every prescription in ps with one query.
func (r *repoPG) attachItems(ctx context.Context, ps []*Prescription) error {
	if len(ps) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Prescription, len(ps))
	ids := make([]uuid.UUID, 0, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, position, medicine_name, dosage, frequency, duration
		FROM prescription_item
		WHERE prescription_id = ANY($1)
		ORDER BY prescription_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.Position, &it.MedicineName,
			&it.Dosage, &it.Frequency, &it.Duration); err != nil {
			return err
		}
		if p := byID[it.PrescriptionID]; p != nil {
			p.Items = append(p.Items, &it)
		}
	}
	return rows.Err()
}
