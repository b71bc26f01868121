// Package audit provides the append-only decision trail. Every firewall
// decision is recorded exactly once; records are never rewritten or deleted
// here. Rotation and retention are operational concerns outside this system.
package audit

import (
	"time"

	"github.com/promptwall/promptwall/pkg/threat"
)

// Record mirrors one request, its assessment and the resulting decision
type Record struct {
	ID               string            `json:"request_id" gorm:"primaryKey;column:request_id"`
	Timestamp        time.Time         `json:"timestamp" gorm:"index"`
	UserID           string            `json:"user_id,omitempty"`
	SessionID        string            `json:"session_id,omitempty"`
	Prompt           string            `json:"prompt"`
	Action           string            `json:"action"`
	Allowed          bool              `json:"allowed"`
	ThreatScore      float64           `json:"threat_score"`
	ThreatLevel      threat.Level      `json:"threat_level" gorm:"index"`
	Categories       []threat.Category `json:"categories,omitempty" gorm:"serializer:json"`
	PolicyMatched    string            `json:"policy_matched,omitempty"`
	Sanitized        bool              `json:"sanitized"`
	ProcessingTimeMs float64           `json:"processing_time_ms"`
}

// TableName sets the storage table for the GORM sink
func (Record) TableName() string { return "audit_records" }

// IsThreat reports whether the record belongs on the threat-only trail
func (r Record) IsThreat() bool {
	return r.ThreatLevel.AtLeast(threat.LevelHigh)
}
