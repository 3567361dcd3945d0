package document

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/util"
	"github.com/sirupsen/logrus"
)

// PageSeparator joins page texts for inline documents
const PageSeparator = " "

const pdfMIMEType = "application/pdf"

// Handle owns a loaded document and its remote lifetime
type Handle struct {
	Doc domain.Document

	once    sync.Once
	release func(ctx context.Context) error
	err     error
}

// Release frees the remote file, if any. Safe to call more than once;
// only the first call reaches the file service.
func (h *Handle) Release(ctx context.Context) error {
	h.once.Do(func() {
		if h.release != nil {
			h.err = h.release(ctx)
		}
	})
	return h.err
}

// Loader obtains analyzable content from an uploaded PDF
type Loader struct {
	config config.LoaderConfig
	logger *logrus.Logger
	pages  PageExtractor
	files  FileService
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewLoader creates a Loader. files may be nil when only inline mode is used.
func NewLoader(cfg config.LoaderConfig, pages PageExtractor, files FileService, logger *logrus.Logger) *Loader {
	return &Loader{
		config: cfg,
		logger: logger,
		pages:  pages,
		files:  files,
		sleep:  sleepContext,
	}
}

// Load dispatches on the configured mode
func (l *Loader) Load(ctx context.Context, data []byte, source string) (*Handle, error) {
	if l.config.Mode == "remote" {
		return l.LoadRemote(ctx, data, source)
	}
	return l.LoadInline(ctx, data, source)
}

// LoadInline extracts all page text locally and concatenates it in page order
func (l *Loader) LoadInline(ctx context.Context, data []byte, source string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := l.pages.ExtractPages(data)
	if err != nil {
		return nil, domain.NewError(domain.KindDocumentRead, "reading PDF", err)
	}

	text := strings.Join(pages, PageSeparator)
	l.logger.WithFields(logrus.Fields{
		"source": source,
		"pages":  len(pages),
		"chars":  len(text),
	}).Debug("Extracted PDF text")

	return &Handle{Doc: domain.Document{
		ID:        uuid.New().String(),
		Source:    source,
		Text:      text,
		PageCount: len(pages),
	}}, nil
}

// LoadRemote uploads the PDF to the file service and waits until it is
// processed. The local temp copy is removed once the upload call returns.
func (l *Loader) LoadRemote(ctx context.Context, data []byte, source string) (*Handle, error) {
	if l.files == nil {
		return nil, fmt.Errorf("remote loading requires a file service")
	}

	file, state, err := l.upload(ctx, data, source)
	if err != nil {
		return nil, domain.NewError(domain.KindDocumentRead, "uploading PDF", err)
	}

	h := &Handle{
		Doc: domain.Document{
			ID:     uuid.New().String(),
			Source: source,
			Remote: file,
		},
		release: func(ctx context.Context) error {
			return l.files.Delete(ctx, file)
		},
	}

	if err := l.waitReady(ctx, file, state); err != nil {
		if rerr := h.Release(context.WithoutCancel(ctx)); rerr != nil {
			l.logger.WithFields(logrus.Fields{"file": file.Name, "error": rerr}).Warn("Failed to release remote file")
		}
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{"source": source, "file": file.Name}).Debug("Remote file ready")
	return h, nil
}

func (l *Loader) upload(ctx context.Context, data []byte, source string) (*domain.RemoteFile, FileState, error) {
	tmp, err := util.WriteTemp(l.config.TempDir, "gapaudit-*.pdf", data)
	if err != nil {
		return nil, "", fmt.Errorf("buffering upload: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			l.logger.WithFields(logrus.Fields{"path": tmp, "error": err}).Warn("Failed to remove temp file")
		}
	}()

	return l.files.Upload(ctx, tmp, pdfMIMEType, source)
}

// waitReady polls at a fixed interval until the file leaves the processing
// state, giving up after PollMaxAttempts status checks.
func (l *Loader) waitReady(ctx context.Context, file *domain.RemoteFile, state FileState) error {
	for attempt := 0; state == FileProcessing; attempt++ {
		if attempt >= l.config.PollMaxAttempts {
			return domain.NewError(domain.KindProcessingTimeout,
				fmt.Sprintf("file %s still processing after %d checks", file.Name, attempt), nil)
		}
		if err := l.sleep(ctx, l.config.PollInterval); err != nil {
			return err
		}

		var err error
		state, err = l.files.Status(ctx, file)
		if err != nil {
			return domain.NewError(domain.KindDocumentRead, "checking file status", err)
		}
		l.logger.WithFields(logrus.Fields{"file": file.Name, "state": state, "attempt": attempt + 1}).Debug("Polled remote file")
	}

	if state == FileFailed {
		return domain.NewError(domain.KindDocumentRead, fmt.Sprintf("file service rejected %s", file.Name), nil)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
