package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func replying(text string, err error) llm.TextGenerator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return text, err
	})
}

func TestExtractOnionScenario(t *testing.T) {
	response := "Sure! Here is the data:\n```json\n" +
		`{"product_type": "onions", "quantity": "10kg", "budget": "300", "urgency": null, "intent": "buy"}` +
		"\n```"
	e := NewExtractor(replying(response, nil), metrics.Noop(), zap.NewNop())

	got := e.Extract(context.Background(), "I need 10kg onions within ₹300")

	assert.Equal(t, Extraction{
		ProductType: "onions",
		Quantity:    "10kg",
		Budget:      "300",
		Intent:      Buy,
	}, got)
	assert.False(t, got.Urgency.Present())
}

func TestExtractFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"generation error", "", errors.New("503 from upstream")},
		{"timeout", "", context.DeadlineExceeded},
		{"no json", "I could not understand that.", nil},
		{"broken json", `{"product_type": "onions", "intent": `, nil},
		{"wrong types", `{"product_type": true, "intent": "buy"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(replying(tt.response, tt.err), metrics.Noop(), zap.NewNop())
			assert.Equal(t, Fallback(), e.Extract(context.Background(), "hello"))
		})
	}
}

func TestExtractPromptEmbedsMessage(t *testing.T) {
	var seen string
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		seen = prompt
		return `{"intent":"general"}`, nil
	})
	NewExtractor(gen, metrics.Noop(), zap.NewNop()).Extract(context.Background(), `need "fresh" tomatoes`)

	assert.Contains(t, seen, `"need \"fresh\" tomatoes"`)
	assert.Contains(t, seen, `"intent": "buy/inquiry/price_check/availability/bid"`)
}

func TestParse(t *testing.T) {
	t.Run("first balanced object wins", func(t *testing.T) {
		got, err := Parse(`{"product_type":"chilli {green}","intent":"bid"} trailing {"intent":"buy"}`)
		require.NoError(t, err)
		assert.Equal(t, Text("chilli {green}"), got.ProductType)
		assert.Equal(t, Bid, got.Intent)
	})

	t.Run("numbers become text", func(t *testing.T) {
		got, err := Parse(`{"product_type":"potatoes","quantity":10,"budget":50.5,"intent":"BID"}`)
		require.NoError(t, err)
		assert.Equal(t, Text("10"), got.Quantity)
		assert.Equal(t, Text("50.5"), got.Budget)
		assert.Equal(t, Bid, got.Intent)
	})

	t.Run("unknown intent", func(t *testing.T) {
		got, err := Parse(`{"product_type":"rice","intent":"haggle"}`)
		require.NoError(t, err)
		assert.Equal(t, General, got.Intent)
	})

	t.Run("missing intent", func(t *testing.T) {
		got, err := Parse(`{"product_type":"rice"}`)
		require.NoError(t, err)
		assert.Equal(t, General, got.Intent)
	})
}

func TestTextFirstInt(t *testing.T) {
	n, ok := Text("₹30 per kg").FirstInt()
	assert.True(t, ok)
	assert.Equal(t, 30, n)

	_, ok = Text("a few").FirstInt()
	assert.False(t, ok)

	_, ok = Text("").FirstInt()
	assert.False(t, ok)
}
