package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/audit"
	"github.com/promptwall/promptwall/pkg/firewall"
)

const defaultThreatLimit = 10

type getThreatsHandler struct {
	logger   *logrus.Logger
	firewall *firewall.Firewall
}

type GetThreatsResponse struct {
	Threats []audit.Record `json:"threats"`
}

func NewGetThreatsHandler(logger *logrus.Logger, fw *firewall.Firewall) Handler {
	return &getThreatsHandler{logger: logger, firewall: fw}
}

func (h *getThreatsHandler) Handle(c *fiber.Ctx) error {
	limit := defaultThreatLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = parsed
	}

	threats := h.firewall.RecentThreats(limit)
	if threats == nil {
		threats = []audit.Record{}
	}
	return c.Status(fiber.StatusOK).JSON(GetThreatsResponse{Threats: threats})
}
