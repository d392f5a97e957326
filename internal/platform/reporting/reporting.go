// Package reporting computes the aggregate counts shown on the admin
// dashboard. Every call runs its queries fresh; nothing is cached and the
// counts are not a consistent snapshot of one instant.
package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/hospify/hospify/internal/platform/auth"
)

// Stats is the admin dashboard payload.
type Stats struct {
	TotalDoctors          int64 `json:"total_doctors"`
	TotalPatients         int64 `json:"total_patients"`
	TotalPharmacists      int64 `json:"total_pharmacists"`
	TodayAppointments     int64 `json:"today_appointments"`
	CompletedAppointments int64 `json:"completed_appointments"`
	PendingPrescriptions  int64 `json:"pending_prescriptions"`
}

// Measure is one count query feeding a Stats field. Queries with
// UsesToday take the current civil date as $1.
type Measure struct {
	ID        string
	SQL       string
	UsesToday bool
	set       func(*Stats, int64)
}

// Measures lists the dashboard counts in display order.
var Measures = []Measure{
	{
		ID:  "total_doctors",
		SQL: `SELECT COUNT(*) FROM doctor_profile`,
		set: func(s *Stats, n int64) { s.TotalDoctors = n },
	},
	{
		ID:  "total_patients",
		SQL: `SELECT COUNT(*) FROM patient_profile`,
		set: func(s *Stats, n int64) { s.TotalPatients = n },
	},
	{
		ID:  "total_pharmacists",
		SQL: `SELECT COUNT(*) FROM pharmacist_profile`,
		set: func(s *Stats, n int64) { s.TotalPharmacists = n },
	},
	{
		ID:        "today_appointments",
		SQL:       `SELECT COUNT(*) FROM appointment WHERE appt_date = $1::text::date`,
		UsesToday: true,
		set:       func(s *Stats, n int64) { s.TodayAppointments = n },
	},
	{
		ID:  "completed_appointments",
		SQL: `SELECT COUNT(*) FROM appointment WHERE status = 'completed'`,
		set: func(s *Stats, n int64) { s.CompletedAppointments = n },
	},
	{
		ID: "pending_prescriptions",
		SQL: `SELECT COUNT(*) FROM prescription rx
			WHERE NOT EXISTS (SELECT 1 FROM dispensing_record dr WHERE dr.prescription_id = rx.id)`,
		set: func(s *Stats, n int64) { s.PendingPrescriptions = n },
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *Measure {
	for i := range Measures {
		if Measures[i].ID == id {
			return &Measures[i]
		}
	}
	return nil
}

// Counter runs a single-value count query.
type Counter interface {
	Count(ctx context.Context, sql string, args ...any) (int64, error)
}

// PoolCounter runs counts on a pgx pool.
type PoolCounter struct {
	pool *pgxpool.Pool
}

func NewPoolCounter(pool *pgxpool.Pool) *PoolCounter {
	return &PoolCounter{pool: pool}
}

func (p *PoolCounter) Count(ctx context.Context, sql string, args ...any) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}

type Service struct {
	counter Counter
	loc     *time.Location
	now     func() time.Time
}

func NewService(counter Counter, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{counter: counter, loc: loc, now: time.Now}
}

// Stats evaluates every measure.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	today := s.now().In(s.loc).Format("2006-01-02")

	var out Stats
	for _, m := range Measures {
		var args []any
		if m.UsesToday {
			args = append(args, today)
		}
		n, err := s.counter.Count(ctx, m.SQL, args...)
		if err != nil {
			return nil, fmt.Errorf("measure %s: %w", m.ID, err)
		}
		m.set(&out, n)
	}
	return &out, nil
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/admin", auth.RequireRole("admin"))
	admin.GET("/stats", h.GetStats)
}

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
