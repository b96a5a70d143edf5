// Package intent extracts structured purchase intent from chat text.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/llm"
	"go.uber.org/zap"
)

const extractionPrompt = `Extract product requirements from this message: %q

Respond in JSON format:
{
  "product_type": "extracted product name",
  "quantity": "extracted quantity with unit",
  "budget": "extracted budget if mentioned",
  "urgency": "immediate/today/tomorrow/this_week",
  "intent": "buy/inquiry/price_check/availability/bid"
}

If information is missing, set to null.
If user mentions wanting to bid or make a request when product not found, set intent to "bid".`

// BuildPrompt embeds the user text into the extraction prompt.
func BuildPrompt(message string) string {
	return fmt.Sprintf(extractionPrompt, message)
}

// Extractor never fails: every error path degrades to Fallback().
type Extractor struct {
	gen     llm.TextGenerator
	metrics *metrics.AppMetrics
	log     *zap.Logger
}

func NewExtractor(gen llm.TextGenerator, m *metrics.AppMetrics, log *zap.Logger) *Extractor {
	return &Extractor{gen: gen, metrics: m, log: log}
}

func (e *Extractor) Extract(ctx context.Context, message string) Extraction {
	raw, err := e.gen.Generate(ctx, BuildPrompt(message))
	if err != nil {
		e.log.Debug("Intent extraction fell back after generation error", zap.Error(err))
		return Fallback()
	}

	ex, err := Parse(raw)
	if err != nil {
		e.metrics.RecordLLMParseFailure(ctx, "extract")
		e.log.Debug("Intent extraction fell back after parse error", zap.Error(err))
		return Fallback()
	}
	return ex
}

// Parse pulls the first balanced JSON object out of model output.
// Unknown or missing intents become General.
func Parse(raw string) (Extraction, error) {
	obj, ok := firstObject(raw)
	if !ok {
		return Extraction{}, fmt.Errorf("no JSON object in response")
	}

	var ex Extraction
	if err := json.Unmarshal([]byte(obj), &ex); err != nil {
		return Extraction{}, fmt.Errorf("decode extraction: %w", err)
	}
	ex.Intent = Intent(strings.ToLower(strings.TrimSpace(string(ex.Intent))))
	if !ex.Intent.valid() {
		ex.Intent = General
	}
	return ex, nil
}

// firstObject scans for the first '{' and returns the text up to its matching
// '}', skipping braces inside JSON strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
