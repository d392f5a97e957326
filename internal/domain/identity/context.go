package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/auth"
)

type accountKey struct{}

func WithAccount(ctx context.Context, acct *Account) context.Context {
	return context.WithValue(ctx, accountKey{}, acct)
}

// AccountFrom returns the authenticated account, or nil.
func AccountFrom(ctx context.Context) *Account {
	acct, _ := ctx.Value(accountKey{}).(*Account)
	return acct
}

// PatientFrom returns the caller's patient profile.
func PatientFrom(ctx context.Context) (*PatientProfile, error) {
	if p, ok := profileFrom(ctx).(*PatientProfile); ok && p != nil {
		return p, nil
	}
	return nil, apperr.NotFound("patient record not found")
}

// DoctorFrom returns the caller's doctor profile.
func DoctorFrom(ctx context.Context) (*DoctorProfile, error) {
	if d, ok := profileFrom(ctx).(*DoctorProfile); ok && d != nil {
		return d, nil
	}
	return nil, apperr.NotFound("doctor record not found")
}

// PharmacistFrom returns the caller's pharmacist profile.
func PharmacistFrom(ctx context.Context) (*PharmacistProfile, error) {
	if p, ok := profileFrom(ctx).(*PharmacistProfile); ok && p != nil {
		return p, nil
	}
	return nil, apperr.NotFound("pharmacist record not found")
}

func profileFrom(ctx context.Context) Profile {
	if acct := AccountFrom(ctx); acct != nil {
		return acct.Profile
	}
	return nil
}

// Resolver loads an account by identity id.
type Resolver interface {
	Resolve(ctx context.Context, identityID uuid.UUID) (*Account, error)
}

// LoadAccount resolves the identity named by the verified token and puts
// the account on the request context. The stored role replaces the role
// claim. Requests with no authenticated identity pass through untouched.
func LoadAccount(r Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			sub := auth.UserIDFromContext(ctx)
			if sub == "" {
				return next(c)
			}

			id, err := uuid.Parse(sub)
			if err != nil {
				return apperr.Unauthorized("invalid token subject")
			}
			acct, err := r.Resolve(ctx, id)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return apperr.Unauthorized("account no longer exists")
				}
				return err
			}

			ctx = auth.WithIdentity(ctx, acct.ID.String(), string(acct.Role))
			ctx = WithAccount(ctx, acct)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
