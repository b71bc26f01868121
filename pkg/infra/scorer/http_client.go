// Package scorer implements the detection.Scorer capability against an
// external HTTP classification service. The client is wrapped in a circuit
// breaker so a dead backend stops costing round trips; callers treat any
// error as a signal to fall back to pattern-only scoring.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/infra/httpx"
)

const scorePath = "/v1/score"

// maxResponseBytes bounds how much of a scorer response is read
const maxResponseBytes = 1 << 16

var ErrScorerCallFailed = errors.New("scorer service call failed")

type scoreRequest struct {
	Input []string `json:"input"`
}

type scoreResponse struct {
	MaliciousProbability float64 `json:"malicious_probability"`
}

type HTTPScorer struct {
	client         httpx.Client
	logger         *logrus.Logger
	circuitBreaker httpx.CircuitBreaker
	baseURL        string
	token          string
}

// Option configures an HTTPScorer
type Option func(*HTTPScorer)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client httpx.Client) Option {
	return func(s *HTTPScorer) {
		if client != nil {
			s.client = client
		}
	}
}

// WithToken sets the auth token sent with every score request
func WithToken(token string) Option {
	return func(s *HTTPScorer) { s.token = token }
}

func NewHTTPScorer(
	baseURL string,
	logger *logrus.Logger,
	circuitBreaker httpx.CircuitBreaker,
	opts ...Option,
) *HTTPScorer {
	s := &HTTPScorer{
		client:         &http.Client{},
		logger:         logger,
		circuitBreaker: circuitBreaker,
		baseURL:        baseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the malicious probability in [0,1] for the given text
func (s *HTTPScorer) Score(ctx context.Context, text string) (float64, error) {
	var result float64
	err := s.circuitBreaker.Execute(func() error {
		var innerErr error
		result, innerErr = s.executeScoreRequest(ctx, text)
		return innerErr
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Debug("scorer call failed (circuit breaker)")
		}
		return 0, err
	}
	return result, nil
}

func (s *HTTPScorer) executeScoreRequest(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(scoreRequest{Input: []string{text}})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+scorePath, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Token", s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call scorer service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrScorerCallFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("score response read error: %w", err)
	}

	var scoreResp scoreResponse
	if err := json.Unmarshal(data, &scoreResp); err != nil {
		return 0, fmt.Errorf("invalid score response: %w", err)
	}
	return scoreResp.MaliciousProbability, nil
}
