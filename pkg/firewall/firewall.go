// Package firewall composes detection, policy evaluation, sanitization,
// statistics and auditing into the single per-request decision pipeline.
package firewall

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/promptwall/promptwall/pkg/audit"
	"github.com/promptwall/promptwall/pkg/detection"
	"github.com/promptwall/promptwall/pkg/infra/prometheus"
	"github.com/promptwall/promptwall/pkg/policy"
	"github.com/promptwall/promptwall/pkg/sanitizer"
	"github.com/promptwall/promptwall/pkg/stats"
	"github.com/promptwall/promptwall/pkg/threat"
)

const (
	// DefaultMaxPromptLength is the byte bound above which prompts are
	// truncated before assessment
	DefaultMaxPromptLength = 8192
	// DefaultBatchConcurrency bounds in-flight checks within one batch
	DefaultBatchConcurrency = 8
)

const (
	messageBlocked = "Request blocked due to security policy"
	messageAllowed = "Request allowed"
)

// Request is one immutable inbound prompt check
type Request struct {
	Prompt    string
	UserID    string
	SessionID string
	Timestamp time.Time
}

// Decision is the externally visible result of one check
type Decision struct {
	Action           policy.Action `json:"action"`
	Allowed          bool          `json:"allowed"`
	ThreatScore      float64       `json:"threat_score"`
	ThreatLevel      threat.Level  `json:"threat_level"`
	Message          string        `json:"message"`
	SanitizedPrompt  *string       `json:"sanitized_prompt"`
	PolicyName       string        `json:"policy_name,omitempty"`
	ProcessingTimeMs float64       `json:"processing_time_ms"`
}

type Firewall struct {
	logger           *logrus.Logger
	detector         *detection.Detector
	engine           *policy.Engine
	sanitizer        *sanitizer.Sanitizer
	recorder         audit.Recorder
	stats            *stats.Stats
	maxPromptLength  int
	batchConcurrency int
}

// Option configures a Firewall
type Option func(*Firewall)

// WithMaxPromptLength bounds prompt size in bytes; longer prompts are
// truncated at a rune boundary before assessment. Zero disables the bound.
func WithMaxPromptLength(n int) Option {
	return func(f *Firewall) { f.maxPromptLength = n }
}

// WithBatchConcurrency bounds concurrent evaluation inside BatchCheck
func WithBatchConcurrency(n int) Option {
	return func(f *Firewall) {
		if n > 0 {
			f.batchConcurrency = n
		}
	}
}

func New(
	logger *logrus.Logger,
	detector *detection.Detector,
	engine *policy.Engine,
	san *sanitizer.Sanitizer,
	recorder audit.Recorder,
	st *stats.Stats,
	opts ...Option,
) *Firewall {
	f := &Firewall{
		logger:           logger,
		detector:         detector,
		engine:           engine,
		sanitizer:        san,
		recorder:         recorder,
		stats:            st,
		maxPromptLength:  DefaultMaxPromptLength,
		batchConcurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Check runs the full decision pipeline for one request. It always returns
// a Decision; no failure inside the pipeline surfaces to the caller.
func (f *Firewall) Check(ctx context.Context, req Request) Decision {
	start := time.Now()

	prompt := req.Prompt
	if f.maxPromptLength > 0 && len(prompt) > f.maxPromptLength {
		prompt = truncateAtRune(prompt, f.maxPromptLength)
		f.logger.WithFields(logrus.Fields{
			"original_bytes": len(req.Prompt),
			"limit":          f.maxPromptLength,
		}).Debug("oversized prompt truncated before assessment")
	}

	assessment := f.detector.Assess(ctx, prompt)
	match := f.engine.Evaluate(assessment)

	decision := Decision{
		Action:      match.Action,
		Allowed:     match.Action != policy.ActionBlock,
		ThreatScore: assessment.Score,
		ThreatLevel: assessment.Level,
		PolicyName:  match.PolicyName,
	}

	switch match.Action {
	case policy.ActionBlock:
		decision.Message = messageBlocked
	case policy.ActionSanitize:
		sanitized, changes := f.sanitizer.Sanitize(prompt, assessment)
		decision.SanitizedPrompt = &sanitized
		decision.Message = fmt.Sprintf("Prompt sanitized: %d changes made", len(changes))
	case policy.ActionLog:
		f.logger.WithFields(logrus.Fields{
			"policy":       match.PolicyName,
			"threat_score": assessment.Score,
			"threat_level": assessment.Level,
			"user_id":      req.UserID,
		}).Info("prompt flagged by policy")
		decision.Message = messageAllowed
	default:
		decision.Message = messageAllowed
	}

	decision.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000

	threatDetected := assessment.Level.AtLeast(threat.LevelHigh)
	f.stats.Record(
		match.Action == policy.ActionBlock,
		match.Action == policy.ActionSanitize,
		threatDetected,
	)
	prometheus.DecisionsTotal.WithLabelValues(string(match.Action), string(assessment.Level)).Inc()
	prometheus.DecisionLatency.Observe(decision.ProcessingTimeMs)

	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	f.recorder.Record(audit.Record{
		ID:               uuid.NewString(),
		Timestamp:        timestamp,
		UserID:           req.UserID,
		SessionID:        req.SessionID,
		Prompt:           prompt,
		Action:           string(match.Action),
		Allowed:          decision.Allowed,
		ThreatScore:      assessment.Score,
		ThreatLevel:      assessment.Level,
		Categories:       assessment.Categories,
		PolicyMatched:    match.PolicyName,
		Sanitized:        decision.SanitizedPrompt != nil,
		ProcessingTimeMs: decision.ProcessingTimeMs,
	})

	return decision
}

// CheckPrompt is the convenience form used by the HTTP gateway
func (f *Firewall) CheckPrompt(ctx context.Context, prompt, userID, sessionID string) Decision {
	return f.Check(ctx, Request{
		Prompt:    prompt,
		UserID:    userID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	})
}

// BatchCheck evaluates prompts independently and returns decisions in input
// order. Requests within a batch share nothing but statistics and audit.
func (f *Firewall) BatchCheck(ctx context.Context, prompts []string) []Decision {
	decisions := make([]Decision, len(prompts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.batchConcurrency)
	for i, prompt := range prompts {
		i, prompt := i, prompt
		g.Go(func() error {
			decisions[i] = f.Check(gctx, Request{Prompt: prompt, Timestamp: time.Now().UTC()})
			return nil
		})
	}
	// Workers never return errors; Wait is just the join point.
	_ = g.Wait()

	return decisions
}

// Stats returns a point-in-time counter snapshot
func (f *Firewall) Stats() stats.Snapshot {
	return f.stats.Snapshot()
}

// ResetStats zeroes the counters. Operator action.
func (f *Firewall) ResetStats() {
	f.stats.Reset()
}

// RecentThreats lists high and critical audit records, most recent first
func (f *Firewall) RecentThreats(limit int) []audit.Record {
	return f.recorder.RecentThreats(limit)
}

// ReloadPolicies atomically activates a new rule set; on error the active
// set is untouched.
func (f *Firewall) ReloadPolicies(defs []policy.Definition) error {
	if err := f.engine.Load(defs); err != nil {
		prometheus.PolicyReloads.WithLabelValues("error").Inc()
		return err
	}
	prometheus.PolicyReloads.WithLabelValues("success").Inc()
	return nil
}

// Close flushes and closes the audit recorder
func (f *Firewall) Close() error {
	return f.recorder.Close()
}

// truncateAtRune cuts s to at most n bytes without splitting a rune
func truncateAtRune(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
