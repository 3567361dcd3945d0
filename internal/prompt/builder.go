package prompt

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/domain"
)

// Payload is one request to the extraction backend
type Payload struct {
	Text      string
	File      *domain.RemoteFile // set when the document lives in the vendor file service
	Truncated bool
}

// Builder formats the instruction template with document content
type Builder struct {
	config config.PromptConfig
	tmpl   *template.Template
}

type templateData struct {
	Task        string
	Schema      string
	Fixes       []string
	MaxFindings int
	Content     string
	HasFile     bool
}

// NewBuilder parses the configured template, or the built-in one when no
// template_path is set.
func NewBuilder(cfg config.PromptConfig) (*Builder, error) {
	src := defaultTemplate
	if cfg.TemplatePath != "" {
		data, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("reading prompt template: %w", err)
		}
		src = string(data)
	}

	tmpl, err := template.New("extract").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}

	return &Builder{config: cfg, tmpl: tmpl}, nil
}

// Build renders the prompt for a loaded document
func (b *Builder) Build(doc domain.Document) (Payload, error) {
	content, truncated := b.bound(doc.Text)

	data := templateData{
		Task:        taskDescription,
		Schema:      schemaDescription,
		MaxFindings: b.config.MaxFindings,
		Content:     content,
		HasFile:     doc.IsRemote(),
	}
	for _, f := range domain.DialFixes {
		data.Fixes = append(data.Fixes, f.Label())
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return Payload{}, fmt.Errorf("rendering prompt: %w", err)
	}

	return Payload{
		Text:      buf.String(),
		File:      doc.Remote,
		Truncated: truncated,
	}, nil
}

// bound applies the truncation policy, counting runes so multi-byte text
// is never split mid-character.
func (b *Builder) bound(text string) (string, bool) {
	if b.config.TruncateMode == "full" || b.config.MaxChars <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= b.config.MaxChars {
		return text, false
	}
	return string(runes[:b.config.MaxChars]), true
}
