package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	oai "github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/prompt"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// Generator sends one prompt to a model and returns its text
type Generator interface {
	Generate(ctx context.Context, p prompt.Payload) (string, error)
	Model() string
}

// GenkitGenerator generates text through Genkit for inline documents
type GenkitGenerator struct {
	config  config.LLMConfig
	genkit  *genkit.Genkit
	modelID string
}

// NewGenkitGenerator initializes Genkit with the configured provider plugin
func NewGenkitGenerator(ctx context.Context, cfg config.LLMConfig) *GenkitGenerator {
	var g *genkit.Genkit
	modelID := cfg.Model

	switch cfg.Provider {
	case "openai":
		// OpenAI-compatible API (Zhipu AI, etc.)
		var opts []option.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}

		if !strings.Contains(modelID, "/") {
			modelID = "openai/" + modelID
		}

		g = genkit.Init(ctx,
			genkit.WithDefaultModel(modelID),
			genkit.WithPlugins(&oai.OpenAI{
				APIKey: cfg.APIKey,
				Opts:   opts,
			}),
		)

	default:
		// Google AI (Gemini)
		if !strings.Contains(modelID, "/") {
			modelID = "googleai/" + modelID
		}

		g = genkit.Init(ctx,
			genkit.WithDefaultModel(modelID),
			genkit.WithPlugins(&googlegenai.GoogleAI{
				APIKey: cfg.APIKey,
			}),
		)
	}

	return &GenkitGenerator{
		config:  cfg,
		genkit:  g,
		modelID: modelID,
	}
}

// Generate sends the prompt text. File payloads are not supported here.
func (g *GenkitGenerator) Generate(ctx context.Context, p prompt.Payload) (string, error) {
	if p.File != nil {
		return "", fmt.Errorf("genkit generator cannot attach remote files")
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(g.modelID),
		ai.WithPrompt(p.Text),
	}
	if g.config.Provider != "openai" {
		opts = append(opts, ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(g.config.Temperature),
		}))
	}

	answer, err := genkit.GenerateText(ctx, g.genkit, opts...)
	if err != nil {
		return "", fmt.Errorf("generating findings: %w", err)
	}
	return answer, nil
}

// Model returns the Genkit model identifier
func (g *GenkitGenerator) Model() string {
	return g.modelID
}
