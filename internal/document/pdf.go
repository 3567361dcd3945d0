package document

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// PageExtractor turns raw PDF bytes into per-page text.
// A failed page yields "" at its position, never an error.
type PageExtractor interface {
	ExtractPages(data []byte) ([]string, error)
}

// PDFText extracts text locally with ledongthuc/pdf
type PDFText struct {
	logger *logrus.Logger
}

// NewPDFText creates a local PDF text extractor
func NewPDFText(logger *logrus.Logger) *PDFText {
	return &PDFText{logger: logger}
}

// ExtractPages returns the plain text of every page in page order
func (p *PDFText) ExtractPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("opening PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	n := reader.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		text, err := p.pageText(reader, i)
		if err != nil {
			p.logger.WithFields(logrus.Fields{"page": i, "error": err}).Warn("Page text extraction failed, using empty text")
			continue
		}
		pages[i-1] = text
	}

	return pages, nil
}

func (p *PDFText) pageText(reader *pdf.Reader, i int) (text string, err error) {
	// the parser panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("panic: %v", r)
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
