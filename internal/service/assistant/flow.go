package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/locallink/backend/internal/model/listing"
	"github.com/locallink/backend/internal/service/ai"
	"github.com/locallink/backend/internal/shape"
)

// ErrModelUnavailable 表示模型调用失败（网络、超时、配额等）。
var ErrModelUnavailable = errors.New("model unavailable")

// Extractor turns an offer message into a listing draft.
type Extractor interface {
	Extract(ctx context.Context, req listing.ExtractionRequest) (listing.Draft, error)
}

// Suggester turns a search message into suggestion lines.
type Suggester interface {
	Suggest(ctx context.Context, req listing.SuggestionRequest) (listing.SuggestionResult, error)
}

var (
	extractionRequestValidator = listing.ExtractionRequestShape.MustCompile()
	draftValidator             = listing.DraftShape.MustCompile()
	suggestionRequestValidator = listing.SuggestionRequestShape.MustCompile()
	suggestionValidator        = listing.SuggestionShape.MustCompile()
)

// run renders the template, invokes the model and decodes the validated reply into out.
// Failures are classified as ErrModelUnavailable or shape.ErrSchemaMismatch and not retried.
func run(ctx context.Context, invoker ai.Invoker, prompts *ai.PromptEngine, id ai.TemplateID, params map[string]string, output *shape.Validator, out any) error {
	text, err := prompts.Render(id, params)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	raw, err := invoker.Invoke(ctx, text, output.Shape())
	if err != nil {
		if errors.Is(err, ai.ErrMalformedOutput) {
			return fmt.Errorf("%s: %w: %w", id, shape.ErrSchemaMismatch, err)
		}
		return fmt.Errorf("%s: %w: %w", id, ErrModelUnavailable, err)
	}

	if err := output.Decode(raw, out); err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	return nil
}
