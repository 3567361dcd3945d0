package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/document"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/extract"
	"github.com/juparave/gapaudit/internal/logging"
	"github.com/juparave/gapaudit/internal/prompt"
)

const velocityAnswer = "```json\n" + `[{"area":"Velocity Gaps","description":"No real-time monitoring","dial_fix":"Increase Velocity Weight"},` +
	`{"area":"Thresholds","description":"Static limits","fix":"Increase Sensitivity"}]` + "\n```"

type stubPages struct {
	pages []string
	err   error
}

func (s stubPages) ExtractPages(data []byte) ([]string, error) { return s.pages, s.err }

type stubFiles struct {
	deletes int
}

func (s *stubFiles) Upload(ctx context.Context, path, mimeType, displayName string) (*domain.RemoteFile, document.FileState, error) {
	return &domain.RemoteFile{Name: "files/1", URI: "https://files/1", MIMEType: mimeType}, document.FileReady, nil
}

func (s *stubFiles) Status(ctx context.Context, file *domain.RemoteFile) (document.FileState, error) {
	return document.FileReady, nil
}

func (s *stubFiles) Delete(ctx context.Context, file *domain.RemoteFile) error {
	s.deletes++
	return nil
}

type stubGenerator struct {
	answer  string
	err     error
	started chan struct{}
	release chan struct{}
	last    prompt.Payload
}

func (g *stubGenerator) Generate(ctx context.Context, p prompt.Payload) (string, error) {
	g.last = p
	if g.started != nil {
		close(g.started)
		<-g.release
	}
	return g.answer, g.err
}

func (g *stubGenerator) Model() string { return "stub/model" }

func newRunner(t *testing.T, mode string, gen extract.Generator, files document.FileService) *Runner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Loader.Mode = mode
	cfg.Loader.TempDir = t.TempDir()
	cfg.Reports.OutputDir = filepath.Join(t.TempDir(), "reports")

	logger := logging.Discard()
	loader := document.NewLoader(cfg.Loader, stubPages{pages: []string{"page one", "page two"}}, files, logger)
	builder, err := prompt.NewBuilder(cfg.Prompt)
	if err != nil {
		t.Fatal(err)
	}
	client := extract.NewClient(gen, extract.NewParser(cfg.Extraction, cfg.Prompt.MaxFindings, logger), logger)
	return NewRunner(cfg, loader, builder, client, logger)
}

func TestAnalyzeSeedsSession(t *testing.T) {
	gen := &stubGenerator{answer: velocityAnswer}
	r := newRunner(t, "inline", gen, nil)

	a, err := r.Analyze(context.Background(), []byte("%PDF"), "notice.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Findings) != 2 || a.Findings[0].RecommendedFix != domain.FixIncreaseVelocityWeight {
		t.Fatalf("unexpected findings %+v", a.Findings)
	}
	if !strings.Contains(gen.last.Text, "page one page two") {
		t.Error("prompt should include the joined page text")
	}
	for i, e := range r.Session().Entries() {
		if e.FindingIndex != i || e.Status != domain.DefaultStatus {
			t.Errorf("entry %d not default: %+v", i, e)
		}
	}
	if cur := r.Current(); cur.Source != "notice.pdf" || cur.Model != "stub/model" {
		t.Errorf("unexpected current analysis %+v", cur)
	}
}

func TestAnalyzeFailureKeepsPreviousSession(t *testing.T) {
	answers := []string{
		"Sorry, I cannot help with that.",
		"I could not find failures [1] in the document.",
		"[not json at all",
	}

	for _, answer := range answers {
		t.Run(answer, func(t *testing.T) {
			gen := &stubGenerator{answer: velocityAnswer}
			r := newRunner(t, "inline", gen, nil)
			if _, err := r.Analyze(context.Background(), []byte("%PDF"), "first.pdf"); err != nil {
				t.Fatal(err)
			}
			notes := "keep me"
			r.Session().Update(0, nil, &notes)

			gen.answer = answer
			_, err := r.Analyze(context.Background(), []byte("%PDF"), "second.pdf")
			if !domain.IsKind(err, domain.KindExtractionParse) {
				t.Fatalf("expected ExtractionParseError, got %v", err)
			}
			if domain.RawOf(err) != answer {
				t.Errorf("raw answer not preserved: %q", domain.RawOf(err))
			}
			if r.Session().Len() != 2 || r.Current().Source != "first.pdf" {
				t.Error("failed analysis must not replace the session")
			}
			if r.Session().Entries()[0].Notes != "keep me" {
				t.Error("reviewer notes lost after failed analysis")
			}
		})
	}
}

func TestReportMetadataMatchesSession(t *testing.T) {
	r := newRunner(t, "inline", &stubGenerator{answer: velocityAnswer}, nil)

	var sources sync.Map // document id -> source
	first, err := r.Analyze(context.Background(), []byte("%PDF"), "doc-0.pdf")
	if err != nil {
		t.Fatal(err)
	}
	sources.Store(first.DocumentID, first.Source)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 50; i++ {
			a, err := r.Analyze(context.Background(), []byte("%PDF"), fmt.Sprintf("doc-%d.pdf", i))
			if err != nil {
				t.Error(err)
				return
			}
			sources.Store(a.DocumentID, a.Source)
		}
	}()
	defer func() { <-done }()

	for {
		select {
		case <-done:
			return
		default:
		}
		rpt, err := r.Report()
		if err != nil {
			t.Fatal(err)
		}
		cur := r.Current()
		want, ok := sources.Load(rpt.DocumentID)
		if ok && want != rpt.Source {
			t.Fatalf("report for %s labelled %s, want %s", rpt.DocumentID, rpt.Source, want)
		}
		if want, ok := sources.Load(cur.DocumentID); ok && want != cur.Source {
			t.Fatalf("current analysis %s labelled %s, want %s", cur.DocumentID, cur.Source, want)
		}
	}
}

func TestAnalyzeRemoteReleasesFile(t *testing.T) {
	tests := []struct {
		name    string
		gen     *stubGenerator
		wantErr bool
	}{
		{"success", &stubGenerator{answer: velocityAnswer}, false},
		{"call_failure", &stubGenerator{err: errors.New("quota")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := &stubFiles{}
			r := newRunner(t, "remote", tt.gen, files)

			_, err := r.Analyze(context.Background(), []byte("%PDF"), "notice.pdf")
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if files.deletes != 1 {
				t.Errorf("expected exactly one delete, got %d", files.deletes)
			}
			if tt.gen.last.File == nil || tt.gen.last.File.URI != "https://files/1" {
				t.Errorf("payload should reference the uploaded file: %+v", tt.gen.last)
			}
		})
	}
}

func TestAnalyzeBusy(t *testing.T) {
	gen := &stubGenerator{
		answer:  velocityAnswer,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := newRunner(t, "inline", gen, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Analyze(context.Background(), []byte("%PDF"), "a.pdf")
		done <- err
	}()

	select {
	case <-gen.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first analysis never reached the model")
	}

	if !r.Busy() {
		t.Error("runner should report busy")
	}
	if _, err := r.Analyze(context.Background(), []byte("%PDF"), "b.pdf"); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first analysis failed: %v", err)
	}
	if r.Busy() {
		t.Error("runner should be idle again")
	}
}

func TestAnalyzeUnreadableDocument(t *testing.T) {
	cfg := config.DefaultConfig()
	logger := logging.Discard()
	loader := document.NewLoader(cfg.Loader, stubPages{err: errors.New("not a pdf")}, nil, logger)
	builder, _ := prompt.NewBuilder(cfg.Prompt)
	gen := &stubGenerator{answer: "[]"}
	client := extract.NewClient(gen, extract.NewParser(cfg.Extraction, 4, logger), logger)
	r := NewRunner(cfg, loader, builder, client, logger)

	_, err := r.Analyze(context.Background(), []byte("junk"), "junk.pdf")
	if !domain.IsKind(err, domain.KindDocumentRead) {
		t.Fatalf("expected DocumentReadError, got %v", err)
	}
}

func TestWriteReport(t *testing.T) {
	r := newRunner(t, "inline", &stubGenerator{answer: velocityAnswer}, nil)
	if _, err := r.Analyze(context.Background(), []byte("%PDF"), "notice.pdf"); err != nil {
		t.Fatal(err)
	}

	notes := "Deploy rule"
	if _, err := r.Session().Update(0, nil, &notes); err != nil {
		t.Fatal(err)
	}
	compliant := domain.StatusCompliant
	if _, err := r.Session().Update(1, &compliant, nil); err != nil {
		t.Fatal(err)
	}

	path, rpt, err := r.WriteReport("csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rpt.CriticalCount() != 1 {
		t.Errorf("expected 1 critical gap, got %d", rpt.CriticalCount())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "Area,Status,Notes\nVelocity Gaps,Critical Gap,Deploy rule\nThresholds,Compliant,\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, data)
	}
}

func TestReportBeforeAnalysis(t *testing.T) {
	r := newRunner(t, "inline", &stubGenerator{}, nil)
	rpt, err := r.Report()
	if err != nil {
		t.Fatalf("empty report should succeed: %v", err)
	}
	if len(rpt.Rows) != 0 {
		t.Errorf("expected no rows, got %+v", rpt.Rows)
	}
}

func TestNotifyDisabled(t *testing.T) {
	r := newRunner(t, "inline", &stubGenerator{}, nil)
	if err := r.Notify(context.Background(), &domain.Report{}); err != nil {
		t.Errorf("disabled email should be a no-op, got %v", err)
	}
}
