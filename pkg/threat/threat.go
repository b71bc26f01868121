// Package threat defines the threat taxonomy shared by the detector,
// policy engine and sanitizer: categories, severity levels, assessments
// and the pattern library used for rule based detection.
package threat

// Category represents a class of adversarial content
type Category string

const (
	Injection    Category = "injection"
	Jailbreak    Category = "jailbreak"
	PII          Category = "pii"
	SQLInjection Category = "sql_injection"
	Other        Category = "other"
)

// Level represents a discrete severity band derived from the threat score
type Level string

const (
	LevelSafe     Level = "safe"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// levelOrder gives levels their ordering; higher means more severe
var levelOrder = map[Level]int{
	LevelSafe:     0,
	LevelLow:      1,
	LevelMedium:   2,
	LevelHigh:     3,
	LevelCritical: 4,
}

// Rank returns the ordinal position of the level. Unknown levels rank below safe.
func (l Level) Rank() int {
	if r, ok := levelOrder[l]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether l is as severe as other or more
func (l Level) AtLeast(other Level) bool {
	return l.Rank() >= other.Rank()
}

// IsValid checks if a level name is part of the taxonomy
func (l Level) IsValid() bool {
	_, ok := levelOrder[l]
	return ok
}

// LevelFromScore maps a 0-100 threat score onto a severity band.
// Bands are closed at their lower bound; critical opens strictly above 85,
// so a score of exactly 85 is high:
//
//	critical: (85, 100]
//	high:     [65, 85]
//	medium:   [40, 65)
//	low:      [20, 40)
//	safe:     [0, 20)
func LevelFromScore(score float64) Level {
	switch {
	case score > 85:
		return LevelCritical
	case score >= 65:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	case score >= 20:
		return LevelLow
	default:
		return LevelSafe
	}
}

// Span describes one matched region of the input text. Offsets are byte
// positions into the original prompt, Start inclusive and End exclusive.
type Span struct {
	Category Category `json:"category"`
	Pattern  string   `json:"pattern"`
	Match    string   `json:"match"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
}

// Assessment is the immutable result of analyzing one prompt. It is
// produced once by the detector and never mutated afterwards.
type Assessment struct {
	Score          float64    `json:"score"`
	Level          Level      `json:"level"`
	Categories     []Category `json:"categories"`
	Spans          []Span     `json:"spans"`
	ScorerApplied  bool       `json:"scorer_applied"`
	ScorerDegraded bool       `json:"scorer_degraded"`
}

// HasCategory reports whether the assessment matched the given category
func (a Assessment) HasCategory(c Category) bool {
	for _, cat := range a.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// ClampScore bounds a raw score into the valid [0,100] range
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
