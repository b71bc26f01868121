// Package http contains the fiber handlers that expose the firewall to its
// gateway collaborators. Handlers are thin: parse, delegate to the
// orchestrator, serialize.
package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(c *fiber.Ctx) error
}

// HandlerTransport groups the firewall surface wired into the router
type HandlerTransport struct {
	CheckHandler          Handler
	BatchCheckHandler     Handler
	GetStatsHandler       Handler
	GetThreatsHandler     Handler
	ReloadPoliciesHandler Handler
}

const ErrInvalidJsonPayload = "invalid JSON payload"
