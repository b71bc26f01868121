package policy

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/threat"
)

// DefaultMatchName is reported when no configured rule matches
const DefaultMatchName = "default_allow"

// Match is the outcome of evaluating an assessment against the rule set
type Match struct {
	PolicyName string
	Action     Action
	Severity   threat.Level
	Reason     string
}

// Engine evaluates assessments against the currently loaded snapshot. Reads
// are lock free; reloads swap the whole snapshot atomically so concurrent
// readers see either the old or the new set in full, never a mix.
type Engine struct {
	logger  *logrus.Logger
	current atomic.Pointer[Snapshot]
}

// NewEngine creates an engine with no rules loaded. Evaluate on an empty
// engine always yields the default allow match.
func NewEngine(logger *logrus.Logger) *Engine {
	e := &Engine{logger: logger}
	e.current.Store(&Snapshot{})
	return e
}

// Load validates the definitions and activates them as the new rule set.
// On error the previously active set, if any, remains in place.
func (e *Engine) Load(defs []Definition) error {
	snapshot, err := BuildSnapshot(defs)
	if err != nil {
		return err
	}
	e.current.Store(snapshot)
	e.logger.WithField("policies", snapshot.Len()).Info("policy rule set activated")
	return nil
}

// Evaluate walks the active rules in priority order and returns the first
// match; the default action is allow. Evaluation never fails.
func (e *Engine) Evaluate(a threat.Assessment) Match {
	snapshot := e.current.Load()
	for _, p := range snapshot.policies {
		if p.matches(a) {
			reason := p.Description
			if reason == "" {
				reason = "Matched policy: " + p.Name
			}
			return Match{
				PolicyName: p.Name,
				Action:     p.Action,
				Severity:   p.Severity,
				Reason:     reason,
			}
		}
	}
	return Match{
		PolicyName: DefaultMatchName,
		Action:     ActionAllow,
		Severity:   threat.LevelSafe,
		Reason:     "No policy matched - default allow",
	}
}

// Snapshot returns the currently active rule set
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}
