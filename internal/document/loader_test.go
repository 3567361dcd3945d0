package document

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/logging"
)

type fakePages struct {
	pages []string
	err   error
}

func (f fakePages) ExtractPages(data []byte) ([]string, error) {
	return f.pages, f.err
}

type fakeFiles struct {
	states    []FileState // returned by successive Status calls
	initial   FileState
	uploadErr error
	uploaded  string
	existed   bool
	statusN   int
	deletes   int
}

func (f *fakeFiles) Upload(ctx context.Context, path, mimeType, displayName string) (*domain.RemoteFile, FileState, error) {
	f.uploaded = path
	_, err := os.Stat(path)
	f.existed = err == nil
	if f.uploadErr != nil {
		return nil, "", f.uploadErr
	}
	return &domain.RemoteFile{Name: "files/abc", URI: "https://files/abc", MIMEType: mimeType}, f.initial, nil
}

func (f *fakeFiles) Status(ctx context.Context, file *domain.RemoteFile) (FileState, error) {
	st := FileProcessing
	if f.statusN < len(f.states) {
		st = f.states[f.statusN]
	}
	f.statusN++
	return st, nil
}

func (f *fakeFiles) Delete(ctx context.Context, file *domain.RemoteFile) error {
	f.deletes++
	return nil
}

func testLoaderConfig(mode string) config.LoaderConfig {
	return config.LoaderConfig{
		Mode:            mode,
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 3,
		TempDir:         os.TempDir(),
	}
}

func TestLoadInlineJoinsPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"single", []string{"one"}, "one"},
		{"ordered", []string{"one", "two", "three"}, "one two three"},
		{"failed_middle_page", []string{"one", "", "three"}, "one  three"},
		{"empty_document", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(testLoaderConfig("inline"), fakePages{pages: tt.pages}, nil, logging.Discard())
			h, err := l.Load(context.Background(), []byte("%PDF"), "notice.pdf")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.Doc.Text != tt.want {
				t.Errorf("expected %q, got %q", tt.want, h.Doc.Text)
			}
			if h.Doc.IsRemote() {
				t.Error("inline handle must not be remote")
			}
			if err := h.Release(context.Background()); err != nil {
				t.Errorf("inline release should be a no-op, got %v", err)
			}
		})
	}
}

func TestLoadInlineUnreadable(t *testing.T) {
	l := NewLoader(testLoaderConfig("inline"), fakePages{err: errors.New("bad xref")}, nil, logging.Discard())
	_, err := l.LoadInline(context.Background(), nil, "x.pdf")
	if !domain.IsKind(err, domain.KindDocumentRead) {
		t.Fatalf("expected DocumentReadError, got %v", err)
	}
}

func TestPDFTextRejectsNonPDF(t *testing.T) {
	_, err := NewPDFText(logging.Discard()).ExtractPages([]byte("definitely not a pdf"))
	if err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}

func TestLoadRemoteReady(t *testing.T) {
	files := &fakeFiles{initial: FileProcessing, states: []FileState{FileProcessing, FileReady}}
	l := NewLoader(testLoaderConfig("remote"), nil, files, logging.Discard())

	h, err := l.Load(context.Background(), []byte("%PDF-1.4"), "notice.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.Doc.IsRemote() || h.Doc.Remote.Name != "files/abc" {
		t.Fatalf("unexpected remote handle: %+v", h.Doc.Remote)
	}
	if files.statusN != 2 {
		t.Errorf("expected 2 status checks, got %d", files.statusN)
	}
	if !files.existed {
		t.Error("temp copy should exist while uploading")
	}
	if _, err := os.Stat(files.uploaded); !os.IsNotExist(err) {
		t.Errorf("temp copy %s should be removed after upload", files.uploaded)
	}

	h.Release(context.Background())
	h.Release(context.Background())
	if files.deletes != 1 {
		t.Errorf("expected exactly one delete, got %d", files.deletes)
	}
}

func TestLoadRemoteTimeout(t *testing.T) {
	files := &fakeFiles{initial: FileProcessing}
	l := NewLoader(testLoaderConfig("remote"), nil, files, logging.Discard())

	_, err := l.LoadRemote(context.Background(), []byte("%PDF"), "notice.pdf")
	if !domain.IsKind(err, domain.KindProcessingTimeout) {
		t.Fatalf("expected DocumentProcessingTimeout, got %v", err)
	}
	if files.statusN != 3 {
		t.Errorf("expected poll to stop after 3 checks, got %d", files.statusN)
	}
	if files.deletes != 1 {
		t.Errorf("timed out file should be released, deletes=%d", files.deletes)
	}
}

func TestLoadRemoteFailedState(t *testing.T) {
	files := &fakeFiles{initial: FileFailed}
	l := NewLoader(testLoaderConfig("remote"), nil, files, logging.Discard())

	_, err := l.LoadRemote(context.Background(), []byte("%PDF"), "notice.pdf")
	if !domain.IsKind(err, domain.KindDocumentRead) {
		t.Fatalf("expected DocumentReadError, got %v", err)
	}
}

func TestLoadRemoteUploadErrorCleansTemp(t *testing.T) {
	files := &fakeFiles{uploadErr: errors.New("quota")}
	l := NewLoader(testLoaderConfig("remote"), nil, files, logging.Discard())

	_, err := l.LoadRemote(context.Background(), []byte("%PDF"), "notice.pdf")
	if !domain.IsKind(err, domain.KindDocumentRead) {
		t.Fatalf("expected DocumentReadError, got %v", err)
	}
	if _, err := os.Stat(files.uploaded); !os.IsNotExist(err) {
		t.Error("temp copy should be removed after a failed upload")
	}
}

func TestLoadRemoteCancelled(t *testing.T) {
	files := &fakeFiles{initial: FileProcessing}
	cfg := testLoaderConfig("remote")
	cfg.PollInterval = time.Hour
	l := NewLoader(cfg, nil, files, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.LoadRemote(ctx, []byte("%PDF"), "notice.pdf")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if files.statusN != 0 {
		t.Errorf("no status check expected after cancel, got %d", files.statusN)
	}
}
