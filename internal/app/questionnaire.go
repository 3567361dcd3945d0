package app

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/session"
)

// Questionnaire walks a reviewer through each finding on a terminal
type Questionnaire struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewQuestionnaire reads answers from in and writes prompts to out
func NewQuestionnaire(in io.Reader, out io.Writer) *Questionnaire {
	return &Questionnaire{in: bufio.NewScanner(in), out: out}
}

// Run asks for an assessment and a remediation plan per finding and records
// the answers in the session. An empty answer keeps the current value.
func (q *Questionnaire) Run(s *session.Session) error {
	findings := s.Findings()
	entries := s.Entries()

	for i, f := range findings {
		fmt.Fprintf(q.out, "\nViolation %d: %s\n", i+1, f.Area)
		fmt.Fprintf(q.out, "  The Regulator Found: %s\n", f.Description)
		fmt.Fprintf(q.out, "  Suggested Simulator Fix: %s\n", f.RecommendedFix.Label())
		if f.IsHighPriority() {
			fmt.Fprintln(q.out, "  Severity: High")
		}

		status, err := q.askStatus(entries[i].Status)
		if err != nil {
			return err
		}

		fmt.Fprint(q.out, "  Remediation Plan: ")
		var notes *string
		if line, ok := q.readLine(); ok && line != "" {
			notes = &line
		}

		if _, err := s.Update(i, &status, notes); err != nil {
			return err
		}
	}
	return q.in.Err()
}

func (q *Questionnaire) askStatus(current domain.ReviewStatus) (domain.ReviewStatus, error) {
	for {
		fmt.Fprint(q.out, "  Assessment:")
		for n, st := range domain.Statuses {
			marker := ""
			if st == current {
				marker = "*"
			}
			fmt.Fprintf(q.out, " [%d] %s%s", n+1, st.Label(), marker)
		}
		fmt.Fprint(q.out, ": ")

		line, ok := q.readLine()
		if !ok || line == "" {
			return current, nil
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(domain.Statuses) {
			return domain.Statuses[n-1], nil
		}
		if st, ok := domain.ParseStatus(line); ok {
			return st, nil
		}
		fmt.Fprintf(q.out, "  %q is not a valid assessment\n", line)
	}
}

func (q *Questionnaire) readLine() (string, bool) {
	if !q.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(q.in.Text()), true
}
