package identity

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/db"
)

// Input bounds. Text limits follow the column widths; bcrypt only hashes
// the first 72 bytes of a password and rejects longer ones.
const (
	minPasswordLen = 6
	maxPasswordLen = 72
	maxTextLen     = 255
	maxGenderLen   = 32
	maxAge         = 150
)

// TokenIssuer signs access tokens for authenticated identities.
type TokenIssuer interface {
	Issue(subject, role string) (string, time.Time, error)
}

// PhoneNormalizer returns the canonical form of a contact number.
type PhoneNormalizer func(raw string) (string, error)

type Service struct {
	repo       Repository
	tx         db.TxManager
	tokens     TokenIssuer
	phone      PhoneNormalizer
	logger     zerolog.Logger
	bcryptCost int
	// dummyHash is compared against on unknown emails so both login
	// failures cost the same.
	dummyHash []byte
}

func NewService(repo Repository, tx db.TxManager, tokens TokenIssuer, phone PhoneNormalizer, logger zerolog.Logger) *Service {
	return newService(repo, tx, tokens, phone, logger, bcrypt.DefaultCost)
}

func newService(repo Repository, tx db.TxManager, tokens TokenIssuer, phone PhoneNormalizer, logger zerolog.Logger, cost int) *Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("hospify-dummy-password"), cost)
	return &Service{
		repo:       repo,
		tx:         tx,
		tokens:     tokens,
		phone:      phone,
		logger:     logger.With().Str("component", "identity").Logger(),
		bcryptCost: cost,
		dummyHash:  dummy,
	}
}

// SignupInput is a registration request. Profile fields apply only to the
// matching role.
type SignupInput struct {
	Name           string
	Email          string
	Phone          string
	Password       string
	Role           Role
	Age            *int
	Gender         *string
	Specialization string
	Department     string
}

var signupRoles = map[Role]bool{
	RoleDoctor:     true,
	RolePatient:    true,
	RolePharmacist: true,
}

// Register creates an identity and its role profile in one transaction and
// returns a session for it. Admin accounts cannot be self-registered.
func (s *Service) Register(ctx context.Context, in SignupInput) (*Session, error) {
	if !signupRoles[in.Role] {
		return nil, apperr.Validation("invalid role: %s", in.Role)
	}
	return s.register(ctx, in)
}

// CreateAdmin registers an administrator. It backs the seed command; there
// is no HTTP route for it.
func (s *Service) CreateAdmin(ctx context.Context, name, email, phone, password string) (*Account, error) {
	sess, err := s.register(ctx, SignupInput{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Password: password,
		Role:     RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	return sess.Account, nil
}

func (s *Service) register(ctx context.Context, in SignupInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.Email == "" {
		return nil, apperr.Validation("email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	if len(in.Password) > maxPasswordLen {
		return nil, apperr.Validation("password must be at most %d bytes", maxPasswordLen)
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("invalid role: %s", in.Role)
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > maxAge) {
		return nil, apperr.Validation("age must be between 0 and %d", maxAge)
	}
	if in.Gender != nil && utf8.RuneCountInString(*in.Gender) > maxGenderLen {
		return nil, apperr.Validation("gender must be at most %d characters", maxGenderLen)
	}
	for field, v := range map[string]string{
		"name":           in.Name,
		"email":          in.Email,
		"specialization": in.Specialization,
		"department":     in.Department,
	} {
		if utf8.RuneCountInString(v) > maxTextLen {
			return nil, apperr.Validation("%s must be at most %d characters", field, maxTextLen)
		}
	}

	phone := strings.TrimSpace(in.Phone)
	if s.phone != nil {
		normalized, err := s.phone(phone)
		if err != nil {
			return nil, apperr.Validation("invalid phone number")
		}
		phone = normalized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	acct := &Account{Identity: Identity{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         in.Role,
	}}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateIdentity(ctx, &acct.Identity); err != nil {
			return err
		}
		profile, err := s.createProfile(ctx, acct.ID, in)
		if err != nil {
			return err
		}
		acct.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("identity_id", acct.ID.String()).
		Str("role", string(acct.Role)).
		Msg("identity registered")

	return s.session(acct)
}

func (s *Service) createProfile(ctx context.Context, identityID uuid.UUID, in SignupInput) (Profile, error) {
	switch in.Role {
	case RoleDoctor:
		d := &DoctorProfile{
			IdentityID:     identityID,
			Specialization: orDefault(in.Specialization, DefaultDepartment),
			Department:     orDefault(in.Department, DefaultDepartment),
		}
		return d, s.repo.CreateDoctor(ctx, d)
	case RolePatient:
		p := &PatientProfile{IdentityID: identityID, Age: in.Age, Gender: in.Gender}
		return p, s.repo.CreatePatient(ctx, p)
	case RolePharmacist:
		p := &PharmacistProfile{IdentityID: identityID}
		return p, s.repo.CreatePharmacist(ctx, p)
	case RoleAdmin:
		return &AdminProfile{}, nil
	}
	return nil, apperr.Validation("invalid role: %s", in.Role)
}

// Authenticate verifies credentials and returns a session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	ident, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, apperr.Unauthorized("incorrect email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("incorrect email or password")
	}

	acct, err := s.withProfile(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.session(acct)
}

// Resolve loads the account for an authenticated identity id.
func (s *Service) Resolve(ctx context.Context, identityID uuid.UUID) (*Account, error) {
	ident, err := s.repo.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return s.withProfile(ctx, ident)
}

func (s *Service) withProfile(ctx context.Context, ident *Identity) (*Account, error) {
	acct := &Account{Identity: *ident}

	var (
		profile Profile
		err     error
	)
	switch ident.Role {
	case RoleAdmin:
		profile = &AdminProfile{}
	case RoleDoctor:
		profile, err = s.repo.DoctorByIdentity(ctx, ident.ID)
	case RolePatient:
		profile, err = s.repo.PatientByIdentity(ctx, ident.ID)
	case RolePharmacist:
		profile, err = s.repo.PharmacistByIdentity(ctx, ident.ID)
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		// Role without a profile row; profile accessors report it.
	case err != nil:
		return nil, err
	default:
		acct.Profile = profile
	}
	return acct, nil
}

func (s *Service) session(acct *Account) (*Session, error) {
	token, exp, err := s.tokens.Issue(acct.ID.String(), string(acct.Role))
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, TokenType: "bearer", ExpiresAt: exp, Account: acct}, nil
}

// DoctorExists reports whether doctorID names a doctor profile.
func (s *Service) DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	_, err := s.repo.GetDoctor(ctx, doctorID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*DoctorView, error) {
	return s.repo.GetDoctor(ctx, doctorID)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*DoctorView, int, error) {
	return s.repo.ListDoctors(ctx, limit, offset)
}

func (s *Service) ListPharmacists(ctx context.Context, limit, offset int) ([]*PharmacistView, int, error) {
	return s.repo.ListPharmacists(ctx, limit, offset)
}

// DeleteDoctor removes a doctor and their identity.
func (s *Service) DeleteDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if err := s.repo.DeleteDoctor(ctx, doctorID); err != nil {
		return err
	}
	s.logger.Info().Str("doctor_id", doctorID.String()).Msg("doctor removed")
	return nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
