package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route patterns reachable without a bearer token.
var publicPaths = map[string]bool{
	"/health":                 true,
	"/health/db":              true,
	"/api/v1/auth/signup":     true,
	"/api/v1/auth/login":      true,
	"/api/v1/doctors":         true,
	"/api/v1/chatbot/message": true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given route pattern is public.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
