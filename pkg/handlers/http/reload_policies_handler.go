package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/config"
	"github.com/promptwall/promptwall/pkg/firewall"
)

type reloadPoliciesHandler struct {
	logger     *logrus.Logger
	firewall   *firewall.Firewall
	policyFile string
}

func NewReloadPoliciesHandler(logger *logrus.Logger, fw *firewall.Firewall, policyFile string) Handler {
	return &reloadPoliciesHandler{logger: logger, firewall: fw, policyFile: policyFile}
}

// Handle re-reads the policy file and swaps the rule set atomically. An
// invalid file leaves the active set untouched and reports the reason.
func (h *reloadPoliciesHandler) Handle(c *fiber.Ctx) error {
	if h.policyFile == "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no policy file configured"})
	}

	defs, err := config.LoadPolicyFile(h.policyFile)
	if err != nil {
		h.logger.WithError(err).Error("policy reload failed: unreadable file")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.firewall.ReloadPolicies(defs); err != nil {
		h.logger.WithError(err).Error("policy reload rejected, previous rule set stays active")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	h.logger.WithField("policies", len(defs)).Info("policy rule set reloaded")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"reloaded": len(defs)})
}
