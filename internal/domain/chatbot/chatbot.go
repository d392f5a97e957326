// Package chatbot answers booking questions with keyword rules. It keeps no
// state between messages.
package chatbot

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hospify/hospify/internal/platform/apperr"
	"github.com/hospify/hospify/internal/platform/validate"
)

// Rule replies with Reply when the lower-cased message contains any keyword.
type Rule struct {
	Topic    string
	Keywords []string
	Reply    string
}

// DefaultRules route to the seeded specialists. Earlier rules win.
var DefaultRules = []Rule{
	{
		Topic:    "cardiology",
		Keywords: []string{"cardio", "heart"},
		Reply:    "I can help you book an appointment with our Cardiologist, Dr. Sharma. Would you like to schedule a consultation?",
	},
	{
		Topic:    "dermatology",
		Keywords: []string{"derma", "skin"},
		Reply:    "Our Dermatologist, Dr. Patel, is available for skin consultations. Shall I help you book an appointment?",
	},
	{
		Topic:    "orthopedics",
		Keywords: []string{"ortho", "bone", "joint"},
		Reply:    "Dr. Kumar, our Orthopedic specialist, can help with bone and joint issues. Would you like to book an appointment?",
	},
}

type Bot struct {
	rules []Rule
}

func New(rules []Rule) *Bot {
	return &Bot{rules: rules}
}

// Reply answers message. The returned topic is empty for the fallback.
func (b *Bot) Reply(message string) (reply, topic string, err error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "", "", apperr.Validation("message is required")
	}

	lower := strings.ToLower(trimmed)
	for _, r := range b.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Reply, r.Topic, nil
			}
		}
	}
	return fmt.Sprintf("I understood: '%s'. Please select a doctor and available slot from the booking form to schedule your appointment.", trimmed), "", nil
}

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/chatbot/message", h.Message)
}

type messageRequest struct {
	Message string `json:"message" validate:"required"`
}

type messageResponse struct {
	Reply string `json:"reply"`
	Topic string `json:"topic,omitempty"`
}

func (h *Handler) Message(c echo.Context) error {
	var req messageRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	reply, topic, err := h.bot.Reply(req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Reply: reply, Topic: topic})
}
