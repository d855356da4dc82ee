package assistant

import (
	"context"
	"fmt"

	"github.com/locallink/backend/internal/model/listing"
	"github.com/locallink/backend/internal/service/ai"
)

// ExtractionFlow extracts listing fields from an offer message with the
// guideListingCreation prompt.
type ExtractionFlow struct {
	invoker ai.Invoker
	prompts *ai.PromptEngine
}

// NewExtractionFlow wires the flow to a model invoker and prompt engine.
func NewExtractionFlow(invoker ai.Invoker, prompts *ai.PromptEngine) *ExtractionFlow {
	return &ExtractionFlow{invoker: invoker, prompts: prompts}
}

// Extract returns the validated draft. Fields the user did not mention stay empty.
func (f *ExtractionFlow) Extract(ctx context.Context, req listing.ExtractionRequest) (listing.Draft, error) {
	if _, err := extractionRequestValidator.Validate(map[string]any{"userInput": req.UserInput}); err != nil {
		return listing.Draft{}, fmt.Errorf("%s: %w", ai.GuideListingCreation, err)
	}

	var draft listing.Draft
	err := run(ctx, f.invoker, f.prompts, ai.GuideListingCreation,
		map[string]string{"userInput": req.UserInput}, draftValidator, &draft)
	if err != nil {
		return listing.Draft{}, err
	}
	return draft, nil
}
