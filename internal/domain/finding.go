package domain

import (
	"strings"
	"unicode"
)

// Severity represents the importance level of a finding
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// ParseSeverity maps a loosely formatted severity onto a known level.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return SeverityHigh, true
	case "medium", "med":
		return SeverityMedium, true
	case "low":
		return SeverityLow, true
	}
	return "", false
}

// DialFix is a suggested adjustment to the fraud model simulator.
type DialFix string

const (
	FixIncreaseSensitivity    DialFix = "IncreaseSensitivity"
	FixIncreaseAmountWeight   DialFix = "IncreaseAmountWeight"
	FixIncreaseVelocityWeight DialFix = "IncreaseVelocityWeight"
)

// DialFixes lists every permitted fix in prompt order.
var DialFixes = []DialFix{
	FixIncreaseSensitivity,
	FixIncreaseAmountWeight,
	FixIncreaseVelocityWeight,
}

var dialFixLabels = map[DialFix]string{
	FixIncreaseSensitivity:    "Increase Sensitivity",
	FixIncreaseAmountWeight:   "Increase Amount Weight",
	FixIncreaseVelocityWeight: "Increase Velocity Weight",
}

// Label returns the human readable name used in prompts and reports.
func (f DialFix) Label() string {
	if l, ok := dialFixLabels[f]; ok {
		return l
	}
	return string(f)
}

// Valid reports whether f is one of the three known fixes.
func (f DialFix) Valid() bool {
	_, ok := dialFixLabels[f]
	return ok
}

// ParseDialFix accepts the label ("Increase Velocity Weight"), the identifier
// ("IncreaseVelocityWeight") or snake/kebab variants. Anything else is rejected.
func ParseDialFix(s string) (DialFix, bool) {
	key := foldKey(s)
	if key == "" {
		return "", false
	}
	for _, f := range DialFixes {
		if foldKey(string(f)) == key {
			return f, true
		}
	}
	return "", false
}

// foldKey lowercases and drops every non-alphanumeric rune.
func foldKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Finding represents one regulator-identified failure extracted from a notice
type Finding struct {
	Area           string    `json:"area"`
	Description    string    `json:"description"`
	Severity       *Severity `json:"severity,omitempty"`
	RecommendedFix DialFix   `json:"recommended_fix"`
}

// IsHighPriority returns true if the finding is high severity
func (f *Finding) IsHighPriority() bool {
	return f.Severity != nil && *f.Severity == SeverityHigh
}
