package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets the response headers every API reply carries. HSTS is
// only sent when hsts is true, since development servers run on plain HTTP.
func SecurityHeaders(hsts bool) echo.MiddlewareFunc {
	static := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"Referrer-Policy", "no-referrer"},
		// Responses carry patient and prescription data.
		{"Cache-Control", "no-store"},
	}
	if hsts {
		static = append(static, [2]string{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"})
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for _, kv := range static {
				h.Set(kv[0], kv[1])
			}
			return next(c)
		}
	}
}
