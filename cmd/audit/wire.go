package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/juparave/gapaudit/internal/app"
	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/document"
	"github.com/juparave/gapaudit/internal/extract"
	"github.com/juparave/gapaudit/internal/logging"
	"github.com/juparave/gapaudit/internal/prompt"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

func loadConfig(apply func(*config.Config)) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Verbose = verbose
	if apply != nil {
		apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Verbose), nil
}

func newRunner(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*app.Runner, error) {
	var gen extract.Generator = extract.NewGenkitGenerator(ctx, cfg.LLM)

	var files document.FileService
	if cfg.Loader.Mode == "remote" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.LLM.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating Gemini client: %w", err)
		}
		files = document.NewGeminiFiles(client)
		gen = &extract.Router{
			Text: gen,
			File: extract.NewGenAIGenerator(client, strings.TrimPrefix(cfg.LLM.Model, "googleai/"), cfg.LLM.Temperature),
		}
	}

	builder, err := prompt.NewBuilder(cfg.Prompt)
	if err != nil {
		return nil, fmt.Errorf("loading prompt template: %w", err)
	}

	loader := document.NewLoader(cfg.Loader, document.NewPDFText(logger), files, logger)
	parser := extract.NewParser(cfg.Extraction, cfg.Prompt.MaxFindings, logger)
	client := extract.NewClient(gen, parser, logger)

	return app.NewRunner(cfg, loader, builder, client, logger), nil
}
