package domain

import "time"

// ReportRow is one flattened line of the gap report
type ReportRow struct {
	Area   string `json:"area"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Report represents a finished gap analysis for one document
type Report struct {
	Date       time.Time
	DocumentID string
	Source     string // original file name
	Model      string // The LLM model used for extraction
	Findings   []Finding
	Entries    []ReviewEntry
	Rows       []ReportRow
}

// CountByStatus returns how many entries carry the given status
func (r *Report) CountByStatus(status ReviewStatus) int {
	count := 0
	for _, e := range r.Entries {
		if e.Status == status {
			count++
		}
	}
	return count
}

// CriticalCount returns the number of critical gaps
func (r *Report) CriticalCount() int {
	return r.CountByStatus(StatusCriticalGap)
}

// PlannedCount returns the number of entries with a remediation plan
func (r *Report) PlannedCount() int {
	count := 0
	for i := range r.Entries {
		if r.Entries[i].HasNotes() {
			count++
		}
	}
	return count
}

// TotalFindings returns the total number of findings
func (r *Report) TotalFindings() int {
	return len(r.Findings)
}

// HasFindings returns true if there are any findings
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}
