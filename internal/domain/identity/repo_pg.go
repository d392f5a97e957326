package identity

import (
	"context"
	"strings"

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

const identityCols = `id, name, email, phone, password_hash, role, created_at`

func scanIdentity(row pgx.Row) (*Identity, error) {
	var i Identity
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.Phone, &i.PasswordHash, &i.Role, &i.CreatedAt)
	return &i, db.Translate(err, "identity")
}

func (r *repoPG) CreateIdentity(ctx context.Context, i *Identity) error {
	i.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO identity (id, name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		i.ID, i.Name, i.Email, i.Phone, i.PasswordHash, i.Role).Scan(&i.CreatedAt)
	if db.IsUniqueViolation(err, "identity_email_key") {
		return apperr.Wrap(apperr.KindConflict, err, "email already registered")
	}
	return db.Translate(err, "identity")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	return scanIdentity(r.conn(ctx).QueryRow(ctx, `SELECT `+identityCols+` FROM identity WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return scanIdentity(r.conn(ctx).QueryRow(ctx,
		`SELECT `+identityCols+` FROM identity WHERE email = $1`, strings.ToLower(email)))
}

func (r *repoPG) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM identity WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "identity")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("identity not found")
	}
	return nil
}

func (r *repoPG) CreateDoctor(ctx context.Context, d *DoctorProfile) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profile (id, identity_id, specialization, department)
		VALUES ($1, $2, $3, $4)`,
		d.ID, d.IdentityID, d.Specialization, d.Department)
	return db.Translate(err, "doctor profile")
}

func (r *repoPG) CreatePatient(ctx context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_profile (id, identity_id, age, gender)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.IdentityID, p.Age, p.Gender)
	return db.Translate(err, "patient profile")
}

func (r *repoPG) CreatePharmacist(ctx context.Context, p *PharmacistProfile) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pharmacist_profile (id, identity_id) VALUES ($1, $2)`,
		p.ID, p.IdentityID)
	return db.Translate(err, "pharmacist profile")
}

func (r *repoPG) DoctorByIdentity(ctx context.Context, identityID uuid.UUID) (*DoctorProfile, error) {
	var d DoctorProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, identity_id, specialization, department
		FROM doctor_profile WHERE identity_id = $1`, identityID).
		Scan(&d.ID, &d.IdentityID, &d.Specialization, &d.Department)
	if err != nil {
		return nil, db.Translate(err, "doctor record")
	}
	return &d, nil
}

func (r *repoPG) PatientByIdentity(ctx context.Context, identityID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, identity_id, age, gender
		FROM patient_profile WHERE identity_id = $1`, identityID).
		Scan(&p.ID, &p.IdentityID, &p.Age, &p.Gender)
	if err != nil {
		return nil, db.Translate(err, "patient record")
	}
	return &p, nil
}

func (r *repoPG) PharmacistByIdentity(ctx context.Context, identityID uuid.UUID) (*PharmacistProfile, error) {
	var p PharmacistProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, identity_id FROM pharmacist_profile WHERE identity_id = $1`, identityID).
		Scan(&p.ID, &p.IdentityID)
	if err != nil {
		return nil, db.Translate(err, "pharmacist record")
	}
	return &p, nil
}

const doctorViewCols = `d.id, d.identity_id, i.name, i.email, i.phone, d.specialization, d.department`

func scanDoctorView(row pgx.Row) (*DoctorView, error) {
	var v DoctorView
	err := row.Scan(&v.ID, &v.IdentityID, &v.Name, &v.Email, &v.Phone, &v.Specialization, &v.Department)
	return &v, err
}

func (r *repoPG) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*DoctorView, error) {
	v, err := scanDoctorView(r.conn(ctx).QueryRow(ctx, `
		SELECT `+doctorViewCols+`
		FROM doctor_profile d JOIN identity i ON i.id = d.identity_id
		WHERE d.id = $1`, doctorID))
	if err != nil {
		return nil, db.Translate(err, "doctor")
	}
	return v, nil
}

// DeleteDoctor removes the doctor's identity; the profile goes with it by
// cascade. Doctors referenced by appointments cannot be removed.
func (r *repoPG) DeleteDoctor(ctx context.Context, doctorID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM identity
		WHERE id = (SELECT identity_id FROM doctor_profile WHERE id = $1)`, doctorID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Wrap(apperr.KindConflict, err, "doctor has appointments on record")
		}
		return db.Translate(err, "doctor")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor not found")
	}
	return nil
}

func (r *repoPG) ListDoctors(ctx context.Context, limit, offset int) ([]*DoctorView, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor_profile`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorViewCols+`
		FROM doctor_profile d JOIN identity i ON i.id = d.identity_id
		ORDER BY i.name, d.id
		LIMIT NULLIF($1::int, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*DoctorView{}
	for rows.Next() {
		v, err := scanDoctorView(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListPharmacists(ctx context.Context, limit, offset int) ([]*PharmacistView, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pharmacist_profile`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.identity_id, i.name, i.email, i.phone
		FROM pharmacist_profile p JOIN identity i ON i.id = p.identity_id
		ORDER BY i.name, p.id
		LIMIT NULLIF($1::int, 0) OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []*PharmacistView{}
	for rows.Next() {
		var v PharmacistView
		if err := rows.Scan(&v.ID, &v.IdentityID, &v.Name, &v.Email, &v.Phone); err != nil {
			return nil, 0, err
		}
		items = append(items, &v)
	}
	return items, total, rows.Err()
}
