package appointment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospify/hospify/internal/domain/identity"
	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/auth"
	"github.com/hospify/hospify/internal/platform/validate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("/patient", auth.RequireRole(string(identity.RolePatient)))
	patient.POST("/appointments", h.Book)
	patient.GET("/appointments", h.ListMine)
	patient.DELETE("/appointments/:id", h.Cancel)

	doctor := api.Group("/doctor", auth.RequireRole(string(identity.RoleDoctor)))
	doctor.GET("/appointments", h.TodayQueue)
	doctor.PUT("/appointments/:id/complete", h.Complete)
}

type bookRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required"`
}

func (h *Handler) Book(c echo.Context) error {
	ctx := c.Request().Context()
	patient, err := identity.PatientFrom(ctx)
	if err != nil {
		return err
	}

	var req bookRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	appt, err := h.svc.Book(ctx, patient.ID, BookInput{
		DoctorID: uuid.MustParse(req.DoctorID),
		Date:     req.Date,
		Time:     req.Time,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	patient, err := identity.PatientFrom(ctx)
	if err != nil {
		return err
	}
	items, err := h.svc.ListForPatient(ctx, patient.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	patient, err := identity.PatientFrom(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NotFound("appointment not found")
	}
	if err := h.svc.Cancel(ctx, patient.ID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment cancelled successfully"})
}

func (h *Handler) TodayQueue(c echo.Context) error {
	ctx := c.Request().Context()
	doctor, err := identity.DoctorFrom(ctx)
	if err != nil {
		return err
	}
	items, err := h.svc.TodayQueue(ctx, doctor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Complete(c echo.Context) error {
	ctx := c.Request().Context()
	doctor, err := identity.DoctorFrom(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NotFound("appointment not found")
	}
	if err := h.svc.Complete(ctx, doctor.ID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment marked as completed"})
}
