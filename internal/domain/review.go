package domain

import "strings"

// ReviewStatus is the reviewer's assessment of a single finding
type ReviewStatus string

const (
	StatusCriticalGap ReviewStatus = "CriticalGap"
	StatusPartialGap  ReviewStatus = "PartialGap"
	StatusCompliant   ReviewStatus = "Compliant"
)

// DefaultStatus is assigned to every entry when a session is seeded.
const DefaultStatus = StatusCriticalGap

// Statuses lists assessment options in questionnaire order.
var Statuses = []ReviewStatus{StatusCriticalGap, StatusPartialGap, StatusCompliant}

var statusLabels = map[ReviewStatus]string{
	StatusCriticalGap: "Critical Gap",
	StatusPartialGap:  "Partial Gap",
	StatusCompliant:   "Compliant",
}

// Label returns the display form written to reports.
func (s ReviewStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s ReviewStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// ParseStatus accepts either the identifier or the display label.
func ParseStatus(s string) (ReviewStatus, bool) {
	key := foldKey(s)
	if key == "" {
		return "", false
	}
	for _, st := range Statuses {
		if foldKey(string(st)) == key {
			return st, true
		}
	}
	return "", false
}

// ReviewEntry is the user's annotation of one Finding, keyed by position
type ReviewEntry struct {
	FindingIndex int          `json:"finding_index"`
	Status       ReviewStatus `json:"status"`
	Notes        string       `json:"notes"`
	Version      int          `json:"version"`
}

// HasNotes returns true if the reviewer wrote a remediation plan
func (e *ReviewEntry) HasNotes() bool {
	return strings.TrimSpace(e.Notes) != ""
}
