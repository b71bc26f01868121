// Package detection turns raw prompt text into a threat assessment. The
// baseline is the fixed pattern library in pkg/threat; an optional external
// Scorer can be plugged in and is blended with the pattern score, degrading
// silently to pattern-only scoring when it fails.
package detection

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/infra/prometheus"
	"github.com/promptwall/promptwall/pkg/threat"
)

// Scorer is an external classification capability (typically an ML model
// behind an HTTP service). Score returns a malicious probability in [0,1].
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// BlendMode selects how an external score is combined with the pattern score
type BlendMode string

const (
	// BlendMax takes the maximum of the two scores
	BlendMax BlendMode = "max"
	// BlendWeighted mixes the scores with a configured scorer weight
	BlendWeighted BlendMode = "weighted"
)

const defaultScorerTimeout = 2 * time.Second

type Detector struct {
	logger        *logrus.Logger
	scorer        Scorer
	blendMode     BlendMode
	scorerWeight  float64
	scorerTimeout time.Duration
}

// Option configures a Detector
type Option func(*Detector)

// WithScorer attaches an external scorer. The detector remains fully
// functional without one.
func WithScorer(s Scorer) Option {
	return func(d *Detector) { d.scorer = s }
}

// WithBlendMode sets how pattern and scorer scores are combined
func WithBlendMode(mode BlendMode, scorerWeight float64) Option {
	return func(d *Detector) {
		d.blendMode = mode
		d.scorerWeight = scorerWeight
	}
}

// WithScorerTimeout bounds each external scorer call
func WithScorerTimeout(timeout time.Duration) Option {
	return func(d *Detector) {
		if timeout > 0 {
			d.scorerTimeout = timeout
		}
	}
}

func NewDetector(logger *logrus.Logger, opts ...Option) *Detector {
	d := &Detector{
		logger:        logger,
		blendMode:     BlendMax,
		scorerWeight:  0.5,
		scorerTimeout: defaultScorerTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Assess analyzes text and returns a threat assessment. It is total: it
// never fails, and an unavailable or erroring scorer only degrades the
// result to the pattern-only score.
func (d *Detector) Assess(ctx context.Context, text string) threat.Assessment {
	assessment := d.assessPatterns(text)

	if d.scorer == nil || text == "" {
		return assessment
	}

	scorerCtx, cancel := context.WithTimeout(ctx, d.scorerTimeout)
	defer cancel()

	probability, err := d.scorer.Score(scorerCtx, text)
	if err != nil {
		d.logger.WithError(err).Warn("external scorer unavailable, using pattern score")
		prometheus.ScorerFailures.Inc()
		assessment.ScorerDegraded = true
		return assessment
	}

	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}

	external := probability * 100
	blended := assessment.Score
	switch d.blendMode {
	case BlendWeighted:
		blended = assessment.Score*(1-d.scorerWeight) + external*d.scorerWeight
	default:
		if external > blended {
			blended = external
		}
	}

	assessment.Score = threat.ClampScore(blended)
	assessment.Level = threat.LevelFromScore(assessment.Score)
	assessment.ScorerApplied = true
	return assessment
}

// assessPatterns runs the fixed pattern library against the text. Patterns
// are evaluated in library order and contribute per match, capped per
// category, so the result is reproducible for identical input.
func (d *Detector) assessPatterns(text string) threat.Assessment {
	if text == "" {
		return threat.Assessment{Level: threat.LevelSafe}
	}

	var spans []threat.Span
	var categories []threat.Category
	contributions := make(map[threat.Category]float64, len(threat.CategoryCaps))
	seen := make(map[threat.Category]bool, len(threat.CategoryCaps))

	for i := range threat.Patterns {
		p := &threat.Patterns[i]
		locations := p.Regex.FindAllStringIndex(text, -1)
		if len(locations) == 0 {
			continue
		}
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
		for _, loc := range locations {
			spans = append(spans, threat.Span{
				Category: p.Category,
				Pattern:  p.Name,
				Match:    text[loc[0]:loc[1]],
				Start:    loc[0],
				End:      loc[1],
			})
			contributions[p.Category] += p.Weight
		}
	}

	// Summed in category discovery order: float addition stays reproducible
	var total float64
	for _, category := range categories {
		contribution := contributions[category]
		if limit, ok := threat.CategoryCaps[category]; ok && contribution > limit {
			contribution = limit
		}
		total += contribution
	}

	score := threat.ClampScore(total)
	return threat.Assessment{
		Score:      score,
		Level:      threat.LevelFromScore(score),
		Categories: categories,
		Spans:      spans,
	}
}
