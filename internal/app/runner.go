package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/document"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/extract"
	"github.com/juparave/gapaudit/internal/logging"
	"github.com/juparave/gapaudit/internal/notify"
	"github.com/juparave/gapaudit/internal/prompt"
	"github.com/juparave/gapaudit/internal/report"
	"github.com/juparave/gapaudit/internal/session"
	"github.com/sirupsen/logrus"
)

// Analysis describes the document currently held by the session
type Analysis struct {
	DocumentID string                   `json:"document_id"`
	Source     string                   `json:"source"`
	Model      string                   `json:"model"`
	Date       time.Time                `json:"date"`
	PageCount  int                      `json:"page_count"`
	Truncated  bool                     `json:"truncated"`
	Warnings   []domain.SchemaViolation `json:"warnings"`
	Findings   []domain.Finding         `json:"findings"`
	Entries    []domain.ReviewEntry     `json:"entries"`
}

// Runner orchestrates one document through load, prompt, extraction and review
type Runner struct {
	config  *config.Config
	logger  *logrus.Logger
	loader  *document.Loader
	builder *prompt.Builder
	client  *extract.Client
	session *session.Session
	report  *report.Formatter

	busy    atomic.Bool
	mu      sync.RWMutex
	current Analysis
}

// NewRunner creates a new Runner instance
func NewRunner(cfg *config.Config, loader *document.Loader, builder *prompt.Builder, client *extract.Client, logger *logrus.Logger) *Runner {
	logger = logging.OrDiscard(logger)
	return &Runner{
		config:  cfg,
		logger:  logger,
		loader:  loader,
		builder: builder,
		client:  client,
		session: session.New(),
		report:  report.NewFormatter(cfg.Reports.OutputDir),
	}
}

// Session returns the review session seeded by the last successful Analyze
func (r *Runner) Session() *session.Session {
	return r.session
}

// Analyze loads the PDF, extracts findings and seeds a fresh session.
// Only one analysis runs at a time; a concurrent call fails with ErrBusy.
// On failure the previous session is left untouched.
func (r *Runner) Analyze(ctx context.Context, data []byte, source string) (*Analysis, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrBusy
	}
	defer r.busy.Store(false)

	start := time.Now()
	log := r.logger.WithField("source", source)
	log.WithField("mode", r.config.Loader.Mode).Info("Loading document")

	handle, err := r.loader.Load(ctx, data, source)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(logrus.Fields{"document_id": handle.Doc.ID, "pages": handle.Doc.PageCount})

	payload, err := r.builder.Build(handle.Doc)
	if err != nil {
		if rerr := handle.Release(context.WithoutCancel(ctx)); rerr != nil {
			log.WithError(rerr).Warn("Failed to release remote document")
		}
		return nil, fmt.Errorf("building prompt: %w", err)
	}
	if payload.Truncated {
		log.WithField("max_chars", r.config.Prompt.MaxChars).Info("Document text truncated")
	}

	res, err := r.client.ExtractAndRelease(ctx, payload, handle)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		log.WithField("violation", w.String()).Warn("Skipped invalid finding")
	}

	r.mu.Lock()
	entries := r.session.Seed(handle.Doc.ID, res.Findings)
	a := Analysis{
		DocumentID: handle.Doc.ID,
		Source:     source,
		Model:      r.client.Model(),
		Date:       time.Now(),
		PageCount:  handle.Doc.PageCount,
		Truncated:  payload.Truncated,
		Warnings:   res.Warnings,
		Findings:   res.Findings,
		Entries:    entries,
	}
	r.current = a
	r.mu.Unlock()

	log.WithFields(logrus.Fields{
		"findings": len(res.Findings),
		"elapsed":  time.Since(start).Round(time.Millisecond).String(),
	}).Info("Analysis complete")

	return &a, nil
}

// Busy reports whether an analysis is in flight
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Current returns the active analysis with up-to-date entries
func (r *Runner) Current() Analysis {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a := r.current
	_, a.Findings, a.Entries = r.session.Snapshot()
	return a
}

// Report builds the gap report from the current session
func (r *Runner) Report() (*domain.Report, error) {
	// metadata and session are swapped together under mu by Analyze
	r.mu.RLock()
	meta := r.current
	id, findings, entries := r.session.Snapshot()
	r.mu.RUnlock()

	rows, err := report.Export(findings, entries)
	if err != nil {
		return nil, err
	}

	date := meta.Date
	if date.IsZero() {
		date = time.Now()
	}

	return &domain.Report{
		Date:       date,
		DocumentID: id,
		Source:     meta.Source,
		Model:      meta.Model,
		Findings:   findings,
		Entries:    entries,
		Rows:       rows,
	}, nil
}

// WriteReport saves the current report in the given format, falling back
// to the configured one.
func (r *Runner) WriteReport(format string) (string, *domain.Report, error) {
	if format == "" {
		format = r.config.Reports.Format
	}
	rpt, err := r.Report()
	if err != nil {
		return "", nil, err
	}
	path, err := r.report.Write(rpt, format)
	if err != nil {
		return "", nil, fmt.Errorf("writing report: %w", err)
	}
	r.logger.WithField("path", path).Info("Report saved")
	return path, rpt, nil
}

// Notify emails the report when email delivery is enabled
func (r *Runner) Notify(ctx context.Context, rpt *domain.Report) error {
	if !r.config.Email.Enabled {
		return nil
	}

	r.logger.WithField("to", r.config.Email.ToAddress).Info("Sending email notification")
	notifier, err := notify.NewService(r.config.Email, r.logger)
	if err != nil {
		return fmt.Errorf("initializing email service: %w", err)
	}
	if err := notifier.SendReport(ctx, rpt); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	r.logger.Info("Email sent successfully")
	return nil
}
