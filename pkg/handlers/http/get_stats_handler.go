package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/firewall"
)

type getStatsHandler struct {
	logger   *logrus.Logger
	firewall *firewall.Firewall
}

func NewGetStatsHandler(logger *logrus.Logger, fw *firewall.Firewall) Handler {
	return &getStatsHandler{logger: logger, firewall: fw}
}

func (h *getStatsHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.firewall.Stats())
}
