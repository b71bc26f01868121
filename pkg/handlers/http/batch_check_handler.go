package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/firewall"
)

// maxBatchSize bounds one batch request at the boundary
const maxBatchSize = 100

type batchCheckHandler struct {
	logger   *logrus.Logger
	firewall *firewall.Firewall
}

type BatchCheckRequest struct {
	Prompts []string `json:"prompts"`
}

type BatchCheckResponse struct {
	Decisions []firewall.Decision `json:"decisions"`
}

func NewBatchCheckHandler(logger *logrus.Logger, fw *firewall.Firewall) Handler {
	return &batchCheckHandler{logger: logger, firewall: fw}
}

func (h *batchCheckHandler) Handle(c *fiber.Ctx) error {
	var req BatchCheckRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Debug("failed to bind batch request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}

	if len(req.Prompts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "prompts is required"})
	}
	if len(req.Prompts) > maxBatchSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "too many prompts in one batch"})
	}

	decisions := h.firewall.BatchCheck(c.Context(), req.Prompts)
	return c.Status(fiber.StatusOK).JSON(BatchCheckResponse{Decisions: decisions})
}
