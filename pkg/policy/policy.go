// Package policy maps threat assessments onto firewall actions through an
// ordered, hot-reloadable rule set. Rule sets are validated when loaded and
// swapped atomically as immutable snapshots; evaluation itself never fails.
package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/promptwall/promptwall/pkg/threat"
)

// Action is what the firewall does when a policy matches
type Action string

const (
	ActionAllow    Action = "allow"
	ActionBlock    Action = "block"
	ActionSanitize Action = "sanitize"
	ActionLog      Action = "log"
)

var validActions = map[Action]bool{
	ActionAllow:    true,
	ActionBlock:    true,
	ActionSanitize: true,
	ActionLog:      true,
}

// ErrInvalidPolicySet classifies configuration errors. The engine refuses to
// activate an invalid set; an already active set stays in place.
var ErrInvalidPolicySet = errors.New("invalid policy set")

// Definition is the raw, external representation of one policy rule as it
// arrives from configuration. Enabled defaults to true when omitted;
// Priority defaults to declaration order.
type Definition struct {
	Name        string   `mapstructure:"name" json:"name"`
	Enabled     *bool    `mapstructure:"enabled" json:"enabled,omitempty"`
	Action      string   `mapstructure:"action" json:"action"`
	Severity    string   `mapstructure:"severity" json:"severity"`
	Threshold   float64  `mapstructure:"threshold" json:"threshold"`
	Categories  []string `mapstructure:"categories" json:"categories,omitempty"`
	Priority    *int     `mapstructure:"priority" json:"priority,omitempty"`
	Description string   `mapstructure:"description" json:"description,omitempty"`
}

// Policy is one validated, normalized rule inside a snapshot. Threshold is
// always on the 0-100 scale here regardless of how it was written in config.
type Policy struct {
	Name        string
	Action      Action
	Severity    threat.Level
	Threshold   float64
	Categories  []threat.Category
	Priority    int
	Description string
}

func (p Policy) matches(a threat.Assessment) bool {
	if !a.Level.AtLeast(p.Severity) {
		return false
	}
	if a.Score < p.Threshold {
		return false
	}
	if len(p.Categories) == 0 {
		return true
	}
	for _, c := range p.Categories {
		if a.HasCategory(c) {
			return true
		}
	}
	return false
}

// Snapshot is an immutable, fully validated rule set. Disabled rules are
// excluded at build time; the remaining rules are sorted by priority with
// declaration order breaking ties.
type Snapshot struct {
	policies []Policy
}

// Policies returns the active rules in evaluation order
func (s *Snapshot) Policies() []Policy {
	out := make([]Policy, len(s.policies))
	copy(out, s.policies)
	return out
}

// Len returns the number of enabled rules in the snapshot
func (s *Snapshot) Len() int { return len(s.policies) }

// BuildSnapshot validates and normalizes a list of definitions. Any problem
// returns a descriptive error wrapping ErrInvalidPolicySet and no snapshot.
func BuildSnapshot(defs []Definition) (*Snapshot, error) {
	names := make(map[string]bool, len(defs))
	policies := make([]Policy, 0, len(defs))

	for i, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: policy at position %d has no name", ErrInvalidPolicySet, i)
		}
		if names[def.Name] {
			return nil, fmt.Errorf("%w: duplicate policy name %q", ErrInvalidPolicySet, def.Name)
		}
		names[def.Name] = true

		action := Action(def.Action)
		if !validActions[action] {
			return nil, fmt.Errorf("%w: policy %q has unknown action %q", ErrInvalidPolicySet, def.Name, def.Action)
		}

		severity := threat.Level(def.Severity)
		if !severity.IsValid() {
			return nil, fmt.Errorf("%w: policy %q has unknown severity %q", ErrInvalidPolicySet, def.Name, def.Severity)
		}

		threshold, err := normalizeThreshold(def.Threshold)
		if err != nil {
			return nil, fmt.Errorf("%w: policy %q: %v", ErrInvalidPolicySet, def.Name, err)
		}

		var categories []threat.Category
		for _, c := range def.Categories {
			if !threat.IsValidCategory(c) {
				return nil, fmt.Errorf("%w: policy %q filters on unknown category %q", ErrInvalidPolicySet, def.Name, c)
			}
			categories = append(categories, threat.Category(c))
		}

		if def.Enabled != nil && !*def.Enabled {
			continue
		}

		priority := i
		if def.Priority != nil {
			priority = *def.Priority
		}

		policies = append(policies, Policy{
			Name:        def.Name,
			Action:      action,
			Severity:    severity,
			Threshold:   threshold,
			Categories:  categories,
			Priority:    priority,
			Description: def.Description,
		})
	}

	// Stable sort keeps declaration order for equal priorities
	sort.SliceStable(policies, func(a, b int) bool {
		return policies[a].Priority < policies[b].Priority
	})

	return &Snapshot{policies: policies}, nil
}

// normalizeThreshold accepts thresholds written on either the 0-1 or the
// 0-100 scale and returns the 0-100 form. Values at or below 1 are treated
// as fractions.
func normalizeThreshold(t float64) (float64, error) {
	if t < 0 || t > 100 {
		return 0, fmt.Errorf("threshold %v out of range [0,100]", t)
	}
	if t <= 1 {
		return t * 100, nil
	}
	return t, nil
}

// DefaultDefinitions is the built-in rule set used when no policy file is
// configured: block critical, sanitize high, log medium, allow the rest.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:        "block_critical_threats",
			Action:      string(ActionBlock),
			Severity:    string(threat.LevelCritical),
			Threshold:   0.85,
			Description: "Block critical threats immediately",
		},
		{
			Name:        "sanitize_high_threats",
			Action:      string(ActionSanitize),
			Severity:    string(threat.LevelHigh),
			Threshold:   0.65,
			Description: "Sanitize high-severity prompts",
		},
		{
			Name:        "log_medium_threats",
			Action:      string(ActionLog),
			Severity:    string(threat.LevelMedium),
			Threshold:   0.40,
			Description: "Log medium-severity prompts",
		},
		{
			Name:        "allow_safe_prompts",
			Action:      string(ActionAllow),
			Severity:    string(threat.LevelSafe),
			Threshold:   0,
			Description: "Allow safe prompts",
		},
	}
}
