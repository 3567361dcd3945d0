package session

import (
	"fmt"
	"sync"

	"github.com/juparave/gapaudit/internal/domain"
)

// Session holds the findings of one document and the reviewer's entry for
// each, index-aligned. It is safe for concurrent use.
type Session struct {
	mu         sync.RWMutex
	documentID string
	findings   []domain.Finding
	entries    []domain.ReviewEntry
}

// New creates an empty Session
func New() *Session {
	return &Session{}
}

// Seed replaces the whole session with one default entry per finding.
// Nothing from the previous document survives.
func (s *Session) Seed(documentID string, findings []domain.Finding) []domain.ReviewEntry {
	fs := append([]domain.Finding(nil), findings...)
	entries := make([]domain.ReviewEntry, len(fs))
	for i := range fs {
		entries[i] = domain.ReviewEntry{
			FindingIndex: i,
			Status:       domain.DefaultStatus,
		}
	}

	s.mu.Lock()
	s.documentID = documentID
	s.findings = fs
	s.entries = entries
	s.mu.Unlock()

	return append([]domain.ReviewEntry(nil), entries...)
}

// Update changes the status and/or notes of one entry. Nil arguments
// leave the field as is.
func (s *Session) Update(index int, status *domain.ReviewStatus, notes *string) (domain.ReviewEntry, error) {
	return s.update(index, -1, status, notes)
}

// CompareAndUpdate applies the update only if the entry is still at the
// expected version.
func (s *Session) CompareAndUpdate(index, version int, status *domain.ReviewStatus, notes *string) (domain.ReviewEntry, error) {
	if version < 0 {
		return domain.ReviewEntry{}, domain.NewError(domain.KindInvalidReviewInput, "version must not be negative", nil)
	}
	return s.update(index, version, status, notes)
}

func (s *Session) update(index, version int, status *domain.ReviewStatus, notes *string) (domain.ReviewEntry, error) {
	if status != nil && !status.Valid() {
		return domain.ReviewEntry{}, domain.NewError(domain.KindInvalidReviewInput,
			fmt.Sprintf("unknown status %q", *status), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) {
		return domain.ReviewEntry{}, domain.NewError(domain.KindIndexOutOfRange,
			fmt.Sprintf("index %d outside [0, %d)", index, len(s.entries)), nil)
	}

	e := &s.entries[index]
	if version >= 0 && e.Version != version {
		return *e, domain.NewError(domain.KindVersionConflict,
			fmt.Sprintf("entry %d is at version %d, not %d", index, e.Version, version), nil)
	}

	if status != nil {
		e.Status = *status
	}
	if notes != nil {
		e.Notes = *notes
	}
	e.Version++

	return *e, nil
}

// Entries returns a copy of all entries in finding order
func (s *Session) Entries() []domain.ReviewEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ReviewEntry(nil), s.entries...)
}

// Findings returns a copy of the seeded findings
func (s *Session) Findings() []domain.Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Finding(nil), s.findings...)
}

// Snapshot returns document id, findings and entries read under one lock
func (s *Session) Snapshot() (string, []domain.Finding, []domain.ReviewEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentID,
		append([]domain.Finding(nil), s.findings...),
		append([]domain.ReviewEntry(nil), s.entries...)
}

// Len returns the number of entries
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
