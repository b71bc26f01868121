package threat

import "regexp"

// Pattern is one category tagged matcher in the detection library. Weight is
// the score contribution per match, subject to the per category cap. Redact
// is the marker the sanitizer substitutes for matched spans. Markers are chosen so that no marker matches any pattern,
// which keeps detect+sanitize idempotent.
type Pattern struct {
	Name     string
	Category Category
	Regex    *regexp.Regexp
	Weight   float64
	Redact   string
}

// CategoryCaps bounds the total contribution of each category to the score
var CategoryCaps = map[Category]float64{
	Injection:    100,
	Jailbreak:    80,
	PII:          60,
	SQLInjection: 80,
	Other:        40,
}

// Patterns is the fixed detection library, in evaluation order. Detection
// iterates this slice, never a map, so assessments are reproducible
// bit-for-bit for identical input.
var Patterns = []Pattern{
	// Instruction override attempts
	{
		Name:     "instruction_override",
		Category: Injection,
		Regex:    regexp.MustCompile(`(?i)\b(ignore|disregard|forget|skip)\s+(all\s+)?(the\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules?|directives?|context)\b`),
		Weight:   60,
		Redact:   "[INSTRUCTION_REMOVED]",
	},
	{
		Name:     "instruction_reset",
		Category: Injection,
		Regex:    regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:`),
		Weight:   40,
		Redact:   "[INSTRUCTION_REMOVED]",
	},
	{
		Name:     "forget_everything",
		Category: Injection,
		Regex:    regexp.MustCompile(`(?i)\bforget\s+(everything|all\s+you\s+(know|were\s+told))\b`),
		Weight:   40,
		Redact:   "[INSTRUCTION_REMOVED]",
	},
	{
		Name:     "system_prompt_probe",
		Category: Injection,
		Regex:    regexp.MustCompile(`(?i)\b(reveal|show|print|repeat|leak|expose)\b[^.!?\n]{0,40}\b(system\s+prompt|hidden\s+prompt|initial\s+prompt|secrets?|instructions?)\b`),
		Weight:   35,
		Redact:   "[PROBE_REMOVED]",
	},
	{
		Name:     "system_prompt_ref",
		Category: Injection,
		Regex:    regexp.MustCompile(`(?i)\bsystem\s+prompt\s*:`),
		Weight:   35,
		Redact:   "[SYSTEM_REMOVED]",
	},

	// Role-play jailbreak framings
	{
		Name:     "role_play",
		Category: Jailbreak,
		Regex:    regexp.MustCompile(`(?i)\b(pretend\s+(you\s+are|to\s+be)|roleplay\s+as|act\s+as\s+if\s+you\s+(are|were)|you\s+are\s+now\s+(a|an|in)\b)`),
		Weight:   50,
		Redact:   "[ROLEPLAY_REMOVED]",
	},
	{
		Name:     "persona_mode",
		Category: Jailbreak,
		Regex:    regexp.MustCompile(`(?i)\b(you\s+are\s+DAN\b|DAN\s+mode|developer\s+mode|do\s+anything\s+now)\b`),
		Weight:   55,
		Redact:   "[MODE_REMOVED]",
	},
	{
		Name:     "jailbreak_term",
		Category: Jailbreak,
		Regex:    regexp.MustCompile(`(?i)\bjail\s?break(ing|s)?\b`),
		Weight:   40,
		Redact:   "[JAILBREAK_REMOVED]",
	},

	// PII shapes
	{
		Name:     "ssn",
		Category: PII,
		Regex:    regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		Weight:   25,
		Redact:   "[SSN_REDACTED]",
	},
	{
		Name:     "credit_card",
		Category: PII,
		Regex:    regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{4}\b`),
		Weight:   25,
		Redact:   "[CARD_REDACTED]",
	},
	{
		Name:     "email",
		Category: PII,
		Regex:    regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		Weight:   20,
		Redact:   "[EMAIL_REDACTED]",
	},
	{
		Name:     "phone",
		Category: PII,
		Regex:    regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.]\d{4}\b|\b\d{3}[-.]\d{3}[-.]\d{4}\b`),
		Weight:   15,
		Redact:   "[PHONE_REDACTED]",
	},
	{
		Name:     "secret_key",
		Category: PII,
		Regex:    regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`),
		Weight:   30,
		Redact:   "[API_KEY_REDACTED]",
	},
	{
		Name:     "credential_assignment",
		Category: PII,
		Regex:    regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|password)\s*[=:]\s*\S+`),
		Weight:   30,
		Redact:   "[CREDENTIAL_REDACTED]",
	},

	// SQL injection shapes
	{
		Name:     "sql_tautology",
		Category: SQLInjection,
		Regex:    regexp.MustCompile(`(?i)'\s*(or|and)\s+'?\d+'?\s*=\s*'?\d+`),
		Weight:   45,
		Redact:   "[SQL_REMOVED]",
	},
	{
		Name:     "sql_statement",
		Category: SQLInjection,
		Regex:    regexp.MustCompile(`(?i);\s*(drop|delete|truncate|alter)\s+(table|from|database)\b`),
		Weight:   50,
		Redact:   "[SQL_REMOVED]",
	},
	{
		Name:     "sql_union_probe",
		Category: SQLInjection,
		Regex:    regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`),
		Weight:   45,
		Redact:   "[SQL_REMOVED]",
	},

	// Misc manipulation
	{
		Name:     "filter_disable",
		Category: Other,
		Regex:    regexp.MustCompile(`(?i)\b(disable|bypass|turn\s+off)\s+(the\s+)?(safety|content)\s+(filters?|guardrails?|checks?)\b`),
		Weight:   35,
		Redact:   "[OVERRIDE_REMOVED]",
	},
	{
		Name:     "unfiltered_mode",
		Category: Other,
		Regex:    regexp.MustCompile(`(?i)\b(unfiltered|uncensored)\s+(response|answer|mode|output)\b`),
		Weight:   30,
		Redact:   "[OVERRIDE_REMOVED]",
	},
}

// PatternByName returns the pattern with the given name, or nil
func PatternByName(name string) *Pattern {
	for i := range Patterns {
		if Patterns[i].Name == name {
			return &Patterns[i]
		}
	}
	return nil
}

// ValidCategories lists the category names accepted in policy filters
var ValidCategories = map[Category]bool{
	Injection:    true,
	Jailbreak:    true,
	PII:          true,
	SQLInjection: true,
	Other:        true,
}

// IsValidCategory checks if a category name is part of the taxonomy
func IsValidCategory(c string) bool {
	return ValidCategories[Category(c)]
}
