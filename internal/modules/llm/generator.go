// Package llm wraps the text-generation capability the chat flow depends on.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// TextGenerator turns a prompt into free text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to TextGenerator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("GOOGLE_AI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", apperr.External("text generation failed", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperr.External("text generation returned no text", nil)
	}
	return text, nil
}

// Instrumented bounds every call with a timeout and records latency and failures.
type Instrumented struct {
	next    TextGenerator
	stage   string
	timeout time.Duration
	metrics *metrics.AppMetrics
	log     *zap.Logger
}

// NewInstrumented wraps next. stage labels the metrics ("extract", "converse").
func NewInstrumented(next TextGenerator, stage string, timeout time.Duration, m *metrics.AppMetrics, log *zap.Logger) *Instrumented {
	return &Instrumented{next: next, stage: stage, timeout: timeout, metrics: m, log: log}
}

func (g *Instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.next.Generate(ctx, prompt)
	g.metrics.RecordLLMCall(ctx, g.stage, start, err)
	if err != nil {
		g.log.Warn("Text generation failed",
			zap.String("stage", g.stage),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperr.External("text generation timed out", err)
		}
		return "", err
	}
	return text, nil
}
