package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that admits callers holding one of roles.
// No role implies another, admin included.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	msg := "required role: " + strings.Join(roles, " or ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if allowed[RoleFromContext(c.Request().Context())] {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, msg)
		}
	}
}
