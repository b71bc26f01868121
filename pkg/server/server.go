// Package server assembles the fiber application exposing the firewall.
package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/promptwall/promptwall/pkg/config"
	handlers "github.com/promptwall/promptwall/pkg/handlers/http"
	"github.com/promptwall/promptwall/pkg/infra/prometheus"
)

type Server struct {
	cfg    *config.Config
	logger *logrus.Logger
	router *fiber.App
}

func New(cfg *config.Config, logger *logrus.Logger, transport handlers.HandlerTransport) *Server {
	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             1 * 1024 * 1024,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	r.Use(recover.New())

	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: r,
	}
	s.buildRoutes(transport)
	return s
}

func (s *Server) buildRoutes(t handlers.HandlerTransport) {
	s.router.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	s.router.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(prometheus.Registry(), promhttp.HandlerOpts{}),
		)
		handler(c.Context())
		return nil
	})

	v1 := s.router.Group("/v1/firewall")
	v1.Post("/check", t.CheckHandler.Handle)
	v1.Post("/batch", t.BatchCheckHandler.Handle)
	v1.Get("/stats", t.GetStatsHandler.Handle)
	v1.Get("/threats", t.GetThreatsHandler.Handle)
	v1.Post("/policies/reload", t.ReloadPoliciesHandler.Handle)
}

// App exposes the underlying fiber app, used by handler tests
func (s *Server) App() *fiber.App {
	return s.router
}

func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.WithField("addr", addr).Info("firewall server listening")
	return s.router.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.router.Shutdown()
}
