// Package sanitizer rewrites prompts by replacing spans matched during
// detection with category tagged redaction markers. Text outside matched
// spans is preserved byte for byte.
package sanitizer

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/threat"
)

// FallbackMarker replaces spans whose pattern has no redaction marker
const FallbackMarker = "[REDACTED]"

// Change records one substitution made during sanitization
type Change struct {
	Category    threat.Category `json:"category"`
	Pattern     string          `json:"pattern"`
	Original    string          `json:"original"`
	Replacement string          `json:"replacement"`
	Start       int             `json:"start"`
	End         int             `json:"end"`
}

type Sanitizer struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Sanitizer {
	return &Sanitizer{logger: logger}
}

// Sanitize replaces every matched span of the assessment with its redaction
// marker and returns the rewritten text along with the changes made.
//
// Spans are processed in text order. Overlapping spans are merged into a
// single redaction covering their union, tagged with the pattern of the
// earliest starting span (ties broken by the longer span). Markers never
// match any detection pattern, so re-running detect and sanitize on the
// output changes nothing.
func (s *Sanitizer) Sanitize(text string, a threat.Assessment) (string, []Change) {
	if len(a.Spans) == 0 {
		return text, nil
	}

	merged := mergeSpans(a.Spans)

	var b strings.Builder
	b.Grow(len(text))
	changes := make([]Change, 0, len(merged))

	prev := 0
	for _, span := range merged {
		if span.Start < prev || span.End > len(text) {
			// Span does not line up with this text; assessment belongs to
			// a different input. Skip rather than corrupt the output.
			s.logger.WithFields(logrus.Fields{
				"pattern": span.Pattern,
				"start":   span.Start,
				"end":     span.End,
			}).Warn("sanitizer skipped out-of-range span")
			continue
		}
		marker := FallbackMarker
		if p := threat.PatternByName(span.Pattern); p != nil {
			marker = p.Redact
		}
		b.WriteString(text[prev:span.Start])
		b.WriteString(marker)
		changes = append(changes, Change{
			Category:    span.Category,
			Pattern:     span.Pattern,
			Original:    text[span.Start:span.End],
			Replacement: marker,
			Start:       span.Start,
			End:         span.End,
		})
		prev = span.End
	}
	b.WriteString(text[prev:])

	return b.String(), changes
}

// mergeSpans sorts spans by text position and folds overlapping ones into
// their union. The merged span keeps the category and pattern of the
// earliest starting member.
func mergeSpans(spans []threat.Span) []threat.Span {
	sorted := make([]threat.Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	merged := make([]threat.Span, 0, len(sorted))
	for _, span := range sorted {
		if len(merged) > 0 && span.Start < merged[len(merged)-1].End {
			last := &merged[len(merged)-1]
			if span.End > last.End {
				last.End = span.End
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}
