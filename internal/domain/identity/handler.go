package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/auth"
	"github.com/hospify/hospify/internal/platform/validate"
	"github.com/hospify/hospify/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", h.Me)
	api.GET("/doctors", h.Directory)

	admin := api.Group("/admin", auth.RequireRole(string(RoleAdmin)))
	admin.GET("/doctors", h.ListDoctors)
	admin.GET("/pharmacists", h.ListPharmacists)
	admin.DELETE("/doctors/:id", h.DeleteDoctor)
}

type signupRequest struct {
	Name           string  `json:"name" validate:"required,max=255"`
	Email          string  `json:"email" validate:"required,email,max=255"`
	Phone          string  `json:"phone" validate:"required,max=32,phone"`
	Password       string  `json:"password" validate:"required,min=6,max=72"`
	Role           string  `json:"role" validate:"required,oneof=patient doctor pharmacist"`
	Age            *int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	Gender         *string `json:"gender" validate:"omitempty,max=32"`
	Specialization string  `json:"specialization" validate:"max=255"`
	Department     string  `json:"department" validate:"max=255"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Signup(c echo.Context) error {
	var req signupRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	sess, err := h.svc.Register(c.Request().Context(), SignupInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		Role:           Role(req.Role),
		Age:            req.Age,
		Gender:         req.Gender,
		Specialization: req.Specialization,
		Department:     req.Department,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	sess, err := h.svc.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) Me(c echo.Context) error {
	acct := AccountFrom(c.Request().Context())
	if acct == nil {
		return apperr.Unauthorized("not authenticated")
	}
	return c.JSON(http.StatusOK, acct)
}

// Directory is the public doctor listing used by the booking form.
func (h *Handler) Directory(c echo.Context) error {
	items, _, err := h.svc.ListDoctors(c.Request().Context(), 0, 0)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ListPharmacists(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPharmacists(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid id")
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
