package dispensing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospify/hospify/internal/domain/identity"
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
	pharmacy := api.Group("/pharmacy", auth.RequireRole(string(identity.RolePharmacist)))
	pharmacy.GET("/prescriptions", h.ListPending)
	pharmacy.POST("/dispense", h.Dispense)
}

type dispenseRequest struct {
	PrescriptionID string   `json:"prescription_id" validate:"required,uuid"`
	TotalAmount    *float64 `json:"total_amount" validate:"required,gte=0,lte=9999999999.99"`
	PaymentStatus  string   `json:"payment_status" validate:"omitempty,oneof=pending paid"`
}

func (h *Handler) ListPending(c echo.Context) error {
	items, err := h.svc.ListPending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Dispense(c echo.Context) error {
	ctx := c.Request().Context()
	pharmacist, err := identity.PharmacistFrom(ctx)
	if err != nil {
		return err
	}

	var req dispenseRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	rec, err := h.svc.Dispense(ctx, pharmacist.ID, DispenseInput{
		PrescriptionID: uuid.MustParse(req.PrescriptionID),
		TotalAmount:    *req.TotalAmount,
		PaymentStatus:  PaymentStatus(req.PaymentStatus),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}
