package prescription

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
	api.POST("/doctor/prescriptions", h.Issue, auth.RequireRole(string(identity.RoleDoctor)))
	api.GET("/prescriptions/:id", h.Get,
		auth.RequireRole(string(identity.RoleDoctor), string(identity.RolePharmacist)))
}

type itemRequest struct {
	MedicineName string `json:"medicine_name" validate:"required,max=255"`
	Dosage       string `json:"dosage" validate:"required,max=255"`
	Frequency    string `json:"frequency" validate:"required,max=255"`
	Duration     string `json:"duration" validate:"required,max=255"`
}

type issueRequest struct {
	AppointmentID string        `json:"appointment_id" validate:"required,uuid"`
	Notes         *string       `json:"notes"`
	Items         []itemRequest `json:"items" validate:"dive"`
}

func (h *Handler) Issue(c echo.Context) error {
	ctx := c.Request().Context()
	doctor, err := identity.DoctorFrom(ctx)
	if err != nil {
		return err
	}

	var req issueRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	in := IssueInput{AppointmentID: uuid.MustParse(req.AppointmentID), Notes: req.Notes}
	for _, it := range req.Items {
		in.Items = append(in.Items, ItemInput(it))
	}

	rx, err := h.svc.Issue(ctx, doctor.ID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rx)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NotFound("prescription not found")
	}
	rx, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rx)
}
