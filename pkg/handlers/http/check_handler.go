package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/firewall"
)

type checkHandler struct {
	logger   *logrus.Logger
	firewall *firewall.Firewall
}

type CheckRequest struct {
	Prompt    string `json:"prompt"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

func NewCheckHandler(logger *logrus.Logger, fw *firewall.Firewall) Handler {
	return &checkHandler{logger: logger, firewall: fw}
}

func (h *checkHandler) Handle(c *fiber.Ctx) error {
	var req CheckRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Debug("failed to bind check request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}

	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "prompt is required"})
	}

	decision := h.firewall.CheckPrompt(c.Context(), req.Prompt, req.UserID, req.SessionID)
	return c.Status(fiber.StatusOK).JSON(decision)
}
