package assistant

import (
	"context"
	"fmt"

	"github.com/locallink/backend/internal/model/listing"
	"github.com/locallink/backend/internal/service/ai"
)

// SuggestionFlow asks the model for free-text service suggestions.
type SuggestionFlow struct {
	invoker ai.Invoker
	prompts *ai.PromptEngine
}

// NewSuggestionFlow wires the flow to a model invoker and prompt engine.
func NewSuggestionFlow(invoker ai.Invoker, prompts *ai.PromptEngine) *SuggestionFlow {
	return &SuggestionFlow{invoker: invoker, prompts: prompts}
}

// Suggest returns suggestions in model order; the slice is never nil.
func (f *SuggestionFlow) Suggest(ctx context.Context, req listing.SuggestionRequest) (listing.SuggestionResult, error) {
	if _, err := suggestionRequestValidator.Validate(map[string]any{"query": req.Query}); err != nil {
		return listing.SuggestionResult{}, fmt.Errorf("%s: %w", ai.SuggestListings, err)
	}

	var result listing.SuggestionResult
	err := run(ctx, f.invoker, f.prompts, ai.SuggestListings,
		map[string]string{"query": req.Query}, suggestionValidator, &result)
	if err != nil {
		return listing.SuggestionResult{}, err
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	return result, nil
}
