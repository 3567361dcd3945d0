package extract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/prompt"
	"github.com/sirupsen/logrus"
)

// Releaser frees the remote document once extraction is over
type Releaser interface {
	Release(ctx context.Context) error
}

// Client extracts findings from a prompt payload
type Client struct {
	gen    Generator
	parser *Parser
	logger *logrus.Logger
}

// NewClient creates an extraction Client
func NewClient(gen Generator, parser *Parser, logger *logrus.Logger) *Client {
	return &Client{gen: gen, parser: parser, logger: logger}
}

// Model returns the backing model identifier
func (c *Client) Model() string {
	return c.gen.Model()
}

// Extract calls the model and parses its answer. Call failures are
// ExtractionCallError and are never retried.
func (c *Client) Extract(ctx context.Context, p prompt.Payload) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	log := c.logger.WithFields(logrus.Fields{
		"req_id":    uuid.New().String(),
		"model":     c.gen.Model(),
		"remote":    p.File != nil,
		"truncated": p.Truncated,
	})
	start := time.Now()
	log.Debug("Requesting findings")

	answer, err := c.gen.Generate(ctx, p)
	if err != nil {
		log.WithError(err).Error("Model call failed")
		return Result{}, domain.NewError(domain.KindExtractionCall, "calling model", err)
	}

	res, err := c.parser.Parse(answer)
	if err != nil {
		log.WithError(err).Error("Model response rejected")
		return res, err
	}

	log.WithFields(logrus.Fields{
		"findings":   len(res.Findings),
		"warnings":   len(res.Warnings),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Extracted findings")
	return res, nil
}

// ExtractAndRelease runs Extract and then releases the document whatever
// the outcome. A release failure is logged, not returned.
func (c *Client) ExtractAndRelease(ctx context.Context, p prompt.Payload, doc Releaser) (Result, error) {
	defer func() {
		if err := doc.Release(context.WithoutCancel(ctx)); err != nil {
			c.logger.WithError(err).Warn("Failed to release remote document")
		}
	}()
	return c.Extract(ctx, p)
}
