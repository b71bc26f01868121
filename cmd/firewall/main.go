package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/internal/logger"
	"github.com/promptwall/promptwall/pkg/audit"
	"github.com/promptwall/promptwall/pkg/config"
	"github.com/promptwall/promptwall/pkg/detection"
	"github.com/promptwall/promptwall/pkg/firewall"
	handlers "github.com/promptwall/promptwall/pkg/handlers/http"
	"github.com/promptwall/promptwall/pkg/infra/httpx"
	"github.com/promptwall/promptwall/pkg/infra/prometheus"
	"github.com/promptwall/promptwall/pkg/infra/scorer"
	"github.com/promptwall/promptwall/pkg/policy"
	"github.com/promptwall/promptwall/pkg/sanitizer"
	"github.com/promptwall/promptwall/pkg/server"
	"github.com/promptwall/promptwall/pkg/stats"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.NewLogger(cfg.Log.Level, cfg.Log.Dir)
	prometheus.Initialize()

	// Policy rule set: file when configured, built-in defaults otherwise.
	defs := policy.DefaultDefinitions()
	if cfg.Firewall.PolicyFile != "" {
		defs, err = config.LoadPolicyFile(cfg.Firewall.PolicyFile)
		if err != nil {
			lg.WithError(err).Fatal("failed to read policy file")
		}
	}
	engine := policy.NewEngine(lg)
	if err := engine.Load(defs); err != nil {
		lg.WithError(err).Fatal("refusing to start with an invalid policy set")
	}

	detectorOpts := []detection.Option{
		detection.WithScorerTimeout(cfg.Scorer.Timeout()),
	}
	if cfg.Scorer.Enabled {
		breaker := httpx.NewCircuitBreaker(
			"scorer",
			cfg.Scorer.BreakerResetTimeout(),
			cfg.Scorer.BreakerMaxFailures,
		)
		external := scorer.NewHTTPScorer(
			cfg.Scorer.BaseURL,
			lg,
			breaker,
			scorer.WithToken(cfg.Scorer.Token),
		)
		detectorOpts = append(detectorOpts,
			detection.WithScorer(external),
			detection.WithBlendMode(detection.BlendMode(cfg.Scorer.BlendMode), cfg.Scorer.Weight),
		)
		lg.WithField("base_url", cfg.Scorer.BaseURL).Info("external scorer enabled")
	}
	detector := detection.NewDetector(lg, detectorOpts...)

	recorder := buildRecorder(cfg, lg)

	fw := firewall.New(
		lg,
		detector,
		engine,
		sanitizer.New(lg),
		recorder,
		stats.New(),
		firewall.WithMaxPromptLength(cfg.Firewall.MaxPromptLength),
		firewall.WithBatchConcurrency(cfg.Firewall.BatchConcurrency),
	)

	transport := handlers.HandlerTransport{
		CheckHandler:          handlers.NewCheckHandler(lg, fw),
		BatchCheckHandler:     handlers.NewBatchCheckHandler(lg, fw),
		GetStatsHandler:       handlers.NewGetStatsHandler(lg, fw),
		GetThreatsHandler:     handlers.NewGetThreatsHandler(lg, fw),
		ReloadPoliciesHandler: handlers.NewReloadPoliciesHandler(lg, fw, cfg.Firewall.PolicyFile),
	}

	srv := server.New(cfg, lg, transport)

	go func() {
		if err := srv.Run(); err != nil {
			lg.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		lg.WithError(err).Error("server shutdown failed")
	}
	if err := fw.Close(); err != nil {
		lg.WithError(err).Error("audit recorder shutdown failed")
	}
}

// buildRecorder picks the audit sink from configuration. Audit problems
// never stop the firewall: a broken sink degrades to a no-op with a log.
func buildRecorder(cfg *config.Config, lg *logrus.Logger) audit.Recorder {
	if !cfg.Audit.Enabled {
		return audit.NewAsyncRecorder(lg, audit.NopSink{}, cfg.Audit.BufferSize)
	}

	var sink audit.Sink
	var err error
	switch cfg.Audit.Backend {
	case "postgres":
		sink, err = audit.NewPostgresSink(cfg.Audit.PostgresDSN)
	default:
		sink, err = audit.NewJSONLSink(cfg.Audit.Dir)
	}
	if err != nil {
		lg.WithError(err).Error("audit sink unavailable, decisions will not be persisted")
		sink = audit.NopSink{}
	}
	return audit.NewAsyncRecorder(lg, sink, cfg.Audit.BufferSize)
}
