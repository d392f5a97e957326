package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/auth"
	"github.com/hospify/hospify/internal/platform/db/dbtest"
	"github.com/hospify/hospify/internal/platform/validate"
)

var testKey = []byte("test-signing-key-0123456789abcdef")

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	tx := dbtest.NewMemoryTxManager(repo)
	issuer := auth.NewTokenIssuer("hospify", testKey, 30*time.Minute)
	phone := func(raw string) (string, error) { return validate.NormalizePhone(raw, "IN") }
	return newService(repo, tx, issuer, phone, zerolog.Nop(), bcrypt.MinCost), repo
}

func signup(role Role, email string) SignupInput {
	return SignupInput{
		Name:     "Test User",
		Email:    email,
		Phone:    "9876543210",
		Password: "secret123",
		Role:     role,
	}
}

func TestRegister_CreatesProfileForRole(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		role  Role
		email string
		check func(Profile) bool
	}{
		{RolePatient, "p@example.com", func(p Profile) bool { _, ok := p.(*PatientProfile); return ok }},
		{RoleDoctor, "d@example.com", func(p Profile) bool { _, ok := p.(*DoctorProfile); return ok }},
		{RolePharmacist, "ph@example.com", func(p Profile) bool { _, ok := p.(*PharmacistProfile); return ok }},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			sess, err := svc.Register(ctx, signup(tt.role, tt.email))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(sess.Account.Profile) {
				t.Fatalf("expected %s profile, got %T", tt.role, sess.Account.Profile)
			}
			if sess.TokenType != "bearer" || sess.AccessToken == "" {
				t.Errorf("unexpected session: %+v", sess)
			}
		})
	}

	if len(repo.patients) != 1 || len(repo.doctors) != 1 || len(repo.pharmacists) != 1 {
		t.Errorf("expected exactly one profile per role, got %d/%d/%d",
			len(repo.patients), len(repo.doctors), len(repo.pharmacists))
	}
}

func TestRegister_NormalizesEmailAndPhone(t *testing.T) {
	svc, _ := newTestService(t)
	in := signup(RolePatient, "  Jane@Example.COM ")
	in.Phone = "098765 43210"

	sess, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Account.Email != "jane@example.com" {
		t.Errorf("expected lower-cased email, got %q", sess.Account.Email)
	}
	if sess.Account.Phone != "+919876543210" {
		t.Errorf("expected E.164 phone, got %q", sess.Account.Phone)
	}
}

func TestRegister_DoctorDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	sess, err := svc.Register(context.Background(), signup(RoleDoctor, "doc@example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := sess.Account.Profile.(*DoctorProfile)
	if d.Specialization != DefaultDepartment || d.Department != DefaultDepartment {
		t.Errorf("expected %q defaults, got %q/%q", DefaultDepartment, d.Specialization, d.Department)
	}
}

func TestRegister_PasswordIsHashed(t *testing.T) {
	svc, repo := newTestService(t)
	sess, err := svc.Register(context.Background(), signup(RolePatient, "hash@example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := repo.identities[sess.Account.ID]
	if stored.PasswordHash == "secret123" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestRegister_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, signup(RolePatient, "dup@example.com")); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*SignupInput)
		want   error
	}{
		{"duplicate email", func(in *SignupInput) { in.Email = "DUP@example.com" }, apperr.ErrConflict},
		{"admin role", func(in *SignupInput) { in.Role = RoleAdmin }, apperr.ErrValidation},
		{"unknown role", func(in *SignupInput) { in.Role = "nurse" }, apperr.ErrValidation},
		{"short password", func(in *SignupInput) { in.Password = "abc" }, apperr.ErrValidation},
		{"bad phone", func(in *SignupInput) { in.Phone = "12" }, apperr.ErrValidation},
		{"missing name", func(in *SignupInput) { in.Name = " " }, apperr.ErrValidation},
		{"negative age", func(in *SignupInput) { age := -1; in.Age = &age }, apperr.ErrValidation},
		{"age out of range", func(in *SignupInput) { age := 151; in.Age = &age }, apperr.ErrValidation},
		{"long name", func(in *SignupInput) { in.Name = strings.Repeat("a", 256) }, apperr.ErrValidation},
		{"long email", func(in *SignupInput) { in.Email = strings.Repeat("a", 250) + "@example.com" }, apperr.ErrValidation},
		{"long gender", func(in *SignupInput) { g := strings.Repeat("x", 33); in.Gender = &g }, apperr.ErrValidation},
		{"password over bcrypt limit", func(in *SignupInput) { in.Password = strings.Repeat("p", 73) }, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := signup(RolePatient, "new@example.com")
			tt.mutate(&in)
			_, err := svc.Register(ctx, in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegister_LongDepartment(t *testing.T) {
	svc, repo := newTestService(t)
	in := signup(RoleDoctor, "doc@example.com")
	in.Department = strings.Repeat("d", 256)

	if _, err := svc.Register(context.Background(), in); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "doc@example.com"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected no identity stored, got %v", err)
	}
}

func TestRegister_ProfileFailureRollsBackIdentity(t *testing.T) {
	svc, repo := newTestService(t)
	repo.failCreatePatient = errors.New("disk full")

	_, err := svc.Register(context.Background(), signup(RolePatient, "rollback@example.com"))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.identities) != 0 {
		t.Errorf("expected identity insert rolled back, found %d identities", len(repo.identities))
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, signup(RolePharmacist, "pharma@example.com"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	sess, err := svc.Authenticate(ctx, "Pharma@Example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Account.ID != reg.Account.ID {
		t.Errorf("expected account %s, got %s", reg.Account.ID, sess.Account.ID)
	}
	if _, ok := sess.Account.Profile.(*PharmacistProfile); !ok {
		t.Errorf("expected pharmacist profile, got %T", sess.Account.Profile)
	}

	claims := &auth.Claims{}
	if _, err := jwt.ParseWithClaims(sess.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return testKey, nil
	}); err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Subject != reg.Account.ID.String() || claims.Role != string(RolePharmacist) {
		t.Errorf("unexpected claims: sub=%s role=%s", claims.Subject, claims.Role)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, signup(RolePatient, "known@example.com")); err != nil {
		t.Fatalf("setup: %v", err)
	}

	for _, tc := range []struct{ email, password string }{
		{"known@example.com", "wrong-password"},
		{"unknown@example.com", "secret123"},
	} {
		_, err := svc.Authenticate(ctx, tc.email, tc.password)
		if !errors.Is(err, apperr.ErrUnauthorized) {
			t.Errorf("Authenticate(%s): expected unauthorized, got %v", tc.email, err)
		}
	}
}

func TestResolve_MissingProfile(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	ident := &Identity{Name: "Orphan", Email: "orphan@example.com", Role: RoleDoctor}
	if err := repo.CreateIdentity(ctx, ident); err != nil {
		t.Fatal(err)
	}

	acct, err := svc.Resolve(ctx, ident.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.Profile != nil {
		t.Errorf("expected nil profile, got %T", acct.Profile)
	}
}

func TestResolve_Admin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	ident := &Identity{Name: "Admin", Email: "admin@example.com", Role: RoleAdmin}
	if err := repo.CreateIdentity(ctx, ident); err != nil {
		t.Fatal(err)
	}
	acct, err := svc.Resolve(ctx, ident.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := acct.Profile.(*AdminProfile); !ok {
		t.Errorf("expected admin profile, got %T", acct.Profile)
	}
}

func TestDoctorExists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, signup(RoleDoctor, "exists@example.com"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	doc := sess.Account.Profile.(*DoctorProfile)

	ok, err := svc.DoctorExists(ctx, doc.ID)
	if err != nil || !ok {
		t.Errorf("expected doctor to exist, got %v, %v", ok, err)
	}
	ok, err = svc.DoctorExists(ctx, sess.Account.ID)
	if err != nil || ok {
		t.Errorf("identity id is not a doctor id, got %v, %v", ok, err)
	}
}

func TestDeleteDoctor(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	free, _ := svc.Register(ctx, signup(RoleDoctor, "free@example.com"))
	busy, _ := svc.Register(ctx, signup(RoleDoctor, "busy@example.com"))
	busyID := busy.Account.Profile.(*DoctorProfile).ID
	repo.booked[busyID] = true

	if err := svc.DeleteDoctor(ctx, free.Account.Profile.(*DoctorProfile).ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetByID(ctx, free.Account.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected identity removed, got %v", err)
	}

	if err := svc.DeleteDoctor(ctx, busyID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for doctor with appointments, got %v", err)
	}
	if err := svc.DeleteDoctor(ctx, busy.Account.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListDoctors_Paginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := svc.Register(ctx, signup(RoleDoctor, email)); err != nil {
			t.Fatal(err)
		}
	}

	items, total, err := svc.ListDoctors(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(items) != 2 {
		t.Errorf("expected 2 of 3, got %d of %d", len(items), total)
	}

	all, _, err := svc.ListDoctors(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected every doctor with limit 0, got %d", len(all))
	}
}

func TestCreateAdmin(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	acct, err := svc.CreateAdmin(ctx, "Admin User", "Admin@Hospify.com", "+91 98765 43210", "admin123")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if acct.Role != RoleAdmin || acct.Email != "admin@hospify.com" {
		t.Errorf("unexpected account: %+v", acct.Identity)
	}
	if _, ok := acct.Profile.(*AdminProfile); !ok {
		t.Errorf("expected admin profile, got %T", acct.Profile)
	}
	if len(repo.doctors)+len(repo.patients)+len(repo.pharmacists) != 0 {
		t.Error("admin must not get a profile row")
	}

	sess, err := svc.Authenticate(ctx, "admin@hospify.com", "admin123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Account.Role != RoleAdmin {
		t.Errorf("expected admin session, got %s", sess.Account.Role)
	}
}
