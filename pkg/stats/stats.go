// Package stats keeps process-wide decision counters for one firewall
// instance. The struct is passed explicitly rather than held as a package
// singleton so independent instances (and tests) never share state.
package stats

import "sync/atomic"

// Stats holds atomic counters updated exactly once per request
type Stats struct {
	total           atomic.Int64
	blocked         atomic.Int64
	sanitized       atomic.Int64
	allowed         atomic.Int64
	threatsDetected atomic.Int64
}

func New() *Stats {
	return &Stats{}
}

// Record counts one decision. blocked/sanitized are mutually exclusive;
// everything else (allow, log) counts as allowed. threatDetected marks
// high or critical assessments regardless of action.
func (s *Stats) Record(blocked, sanitized, threatDetected bool) {
	s.total.Add(1)
	switch {
	case blocked:
		s.blocked.Add(1)
	case sanitized:
		s.sanitized.Add(1)
	default:
		s.allowed.Add(1)
	}
	if threatDetected {
		s.threatsDetected.Add(1)
	}
}

// Reset zeroes all counters. Operator action only.
func (s *Stats) Reset() {
	s.total.Store(0)
	s.blocked.Store(0)
	s.sanitized.Store(0)
	s.allowed.Store(0)
	s.threatsDetected.Store(0)
}

// Snapshot is a point-in-time view of the counters with derived rates.
// Rates are percentages of total requests, 0 when no requests were seen.
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	Blocked         int64   `json:"blocked"`
	Sanitized       int64   `json:"sanitized"`
	Allowed         int64   `json:"allowed"`
	ThreatsDetected int64   `json:"threats_detected"`
	BlockRate       float64 `json:"block_rate"`
	SanitizeRate    float64 `json:"sanitize_rate"`
	ThreatRate      float64 `json:"threat_rate"`
}

func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		TotalRequests:   s.total.Load(),
		Blocked:         s.blocked.Load(),
		Sanitized:       s.sanitized.Load(),
		Allowed:         s.allowed.Load(),
		ThreatsDetected: s.threatsDetected.Load(),
	}
	if snap.TotalRequests > 0 {
		total := float64(snap.TotalRequests)
		snap.BlockRate = float64(snap.Blocked) / total * 100
		snap.SanitizeRate = float64(snap.Sanitized) / total * 100
		snap.ThreatRate = float64(snap.ThreatsDetected) / total * 100
	}
	return snap
}
