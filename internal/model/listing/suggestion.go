package listing

import "github.com/locallink/backend/internal/shape"

// SuggestionRequest carries a seeker's free-text query.
type SuggestionRequest struct {
	Query string `json:"query"`
}

// SuggestionResult lists suggestions in the order the backend produced them.
type SuggestionResult struct {
	Suggestions []string `json:"suggestions"`
}

// SuggestionRequestShape validates the outbound suggestion request.
var SuggestionRequestShape = shape.Shape{
	Name: "SuggestListingsInput",
	Fields: []shape.Field{
		{Name: "query", Kind: shape.String, Required: true, Description: "The user query, e.g., 'I need an AC mechanic near me'"},
	},
}

// SuggestionShape is the structured output expected from the suggestion prompt.
var SuggestionShape = shape.Shape{
	Name: "SuggestListingsOutput",
	Fields: []shape.Field{
		{Name: "suggestions", Kind: shape.StringList, Required: true, Description: "An array of suggested service listings."},
	},
}
