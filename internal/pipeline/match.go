package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadflow-cli/pkg/anthropic"
)

// matchNoneToken is the sentinel the oracle replies with when no
// catalogue entry clears the similarity threshold.
const matchNoneToken = "NOTHING"

const matchSystemPrompt = `You are a product-name corrector.

Example:
  Valid catalogue: Soap, Shampoo, Toothpaste
  Input:  Shmpoo
  Output: Shampoo

Return exactly one catalogue name that is at least 75 % similar.
If nothing reaches that similarity, reply with NOTHING.
Reply with the name only, nothing else.`

// ProductMatcher corrects raw product names against the catalogue via
// the Anthropic oracle. Unavailability or an unusable answer degrades to
// "no match"; it never surfaces as an error.
type ProductMatcher struct {
	ai    anthropic.Client
	model string
}

// NewProductMatcher creates a matcher using the given model.
func NewProductMatcher(ai anthropic.Client, model string) *ProductMatcher {
	return &ProductMatcher{ai: ai, model: model}
}

// Match returns the best catalogue match for raw, or ok=false when no
// entry is similar enough. The returned name is always verbatim from the
// catalogue.
func (m *ProductMatcher) Match(ctx context.Context, raw string, catalogue []string) (string, bool) {
	if len(catalogue) == 0 {
		return "", false
	}

	temp := 0.0
	resp, err := m.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       m.model,
		MaxTokens:   64,
		Temperature: &temp,
		System: []anthropic.SystemBlock{
			{Text: matchSystemPrompt},
			// The catalogue repeats across every bucket; cache it.
			{
				Text:         fmt.Sprintf("Valid catalogue: %s", strings.Join(catalogue, ", ")),
				CacheControl: &anthropic.CacheControl{TTL: "5m"},
			},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf("Input: %s", raw)},
		},
	})
	if err != nil {
		zap.L().Warn("matcher unavailable, skipping correction",
			zap.String("raw", raw),
			zap.Error(err),
		)
		return "", false
	}
	resp.Usage.LogCost(m.model, "match")

	answer := firstText(resp)
	if answer == "" {
		zap.L().Warn("matcher returned no usable text", zap.String("raw", raw))
		return "", false
	}
	if strings.HasPrefix(strings.ToUpper(answer), matchNoneToken) {
		return "", false
	}

	// The contract demands a verbatim catalogue name, not a paraphrase.
	for _, name := range catalogue {
		if answer == name {
			return name, true
		}
	}
	zap.L().Warn("matcher answer not in catalogue, treating as no match",
		zap.String("raw", raw),
		zap.String("answer", answer),
	)
	return "", false
}

func firstText(resp *anthropic.MessageResponse) string {
	for _, block := range resp.Content {
		if text := strings.TrimSpace(block.Text); text != "" {
			return text
		}
	}
	return ""
}
