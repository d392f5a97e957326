package dispensing

import (
	"context"

	"github.com/google/uuid"
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

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO dispensing_record (id, prescription_id, pharmacist_id, total_amount, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		rec.ID, rec.PrescriptionID, rec.PharmacistID, rec.TotalAmount, rec.PaymentStatus,
	).Scan(&rec.CreatedAt)
	if db.IsUniqueViolation(err, "dispensing_record_prescription_key") {
		return apperr.Wrap(apperr.KindConflict, err, "prescription already dispensed")
	}
	return db.Translate(err, "dispensing record")
}

func (r *repoPG) ExistsForPrescription(ctx context.Context, prescriptionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM dispensing_record WHERE prescription_id = $1)`, prescriptionID,
	).Scan(&exists)
	return exists, err
}
