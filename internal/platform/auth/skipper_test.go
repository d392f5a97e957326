package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func skipperContext(path string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(path)
	return c
}

func TestAuthSkipper(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/health/db", true},
		{"/api/v1/auth/signup", true},
		{"/api/v1/auth/login", true},
		{"/api/v1/doctors", true},
		{"/api/v1/chatbot/message", true},
		{"/api/v1/auth/me", false},
		{"/api/v1/admin/stats", false},
		{"/api/v1/patient/appointments", false},
		{"/", false},
		{"/health/extra", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := AuthSkipper(skipperContext(tt.path)); got != tt.want {
				t.Errorf("AuthSkipper(%s) = %v, want %v", tt.path, got, tt.want)
			}
			if got := IsPublicPath(tt.path); got != tt.want {
				t.Errorf("IsPublicPath(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Skipper: AuthSkipper}
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	if err := JWTMiddleware(cfg)(handler)(skipperContext("/api/v1/doctors")); err != nil {
		t.Fatalf("expected public path to pass without token, got %v", err)
	}

	err := JWTMiddleware(cfg)(handler)(skipperContext("/api/v1/admin/stats"))
	if err == nil {
		t.Fatal("expected protected path to require a token")
	}
	if httpErr, ok := err.(*echo.HTTPError); !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
