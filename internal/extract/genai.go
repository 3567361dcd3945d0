package extract

import (
	"context"
	"fmt"

	"github.com/juparave/gapaudit/internal/prompt"
	"google.golang.org/genai"
)

// GenAIGenerator calls Gemini directly so uploaded files can be attached
type GenAIGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGenAIGenerator creates a generator bound to an existing genai client
func NewGenAIGenerator(client *genai.Client, model string, temperature float32) *GenAIGenerator {
	return &GenAIGenerator{client: client, model: model, temperature: temperature}
}

// Generate sends the prompt, with the remote file part first when present
func (g *GenAIGenerator) Generate(ctx context.Context, p prompt.Payload) (string, error) {
	var parts []*genai.Part
	if p.File != nil {
		parts = append(parts, genai.NewPartFromURI(p.File.URI, p.File.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(p.Text))

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return result.Text(), nil
}

// Model returns the Gemini model name
func (g *GenAIGenerator) Model() string {
	return g.model
}

// Router sends file payloads to File and everything else to Text
type Router struct {
	Text Generator
	File Generator
}

// Generate picks the backend for the payload
func (r *Router) Generate(ctx context.Context, p prompt.Payload) (string, error) {
	if p.File != nil {
		if r.File == nil {
			return "", fmt.Errorf("no generator configured for remote files")
		}
		return r.File.Generate(ctx, p)
	}
	return r.Text.Generate(ctx, p)
}

// Model returns the text generator's model
func (r *Router) Model() string {
	return r.Text.Model()
}
