package assistant

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/locallink/backend/internal/model/listing"
)

const defaultSuggestionLimit = 5

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "any": {}, "around": {}, "can": {}, "find": {}, "for": {},
	"get": {}, "help": {}, "i": {}, "in": {}, "is": {}, "looking": {}, "local": {}, "me": {},
	"my": {}, "near": {}, "nearby": {}, "need": {}, "please": {}, "some": {}, "someone": {},
	"service": {}, "services": {}, "the": {}, "to": {}, "want": {}, "who": {}, "with": {},
}

// StoreSuggester answers suggestion requests from the listings store instead of the model.
type StoreSuggester struct {
	store listing.Store
	limit int
}

// NewStoreSuggester creates a suggester returning at most limit listings (5 when limit <= 0).
func NewStoreSuggester(store listing.Store, limit int) *StoreSuggester {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	return &StoreSuggester{store: store, limit: limit}
}

// Suggest matches significant query terms against listings, newest first.
func (s *StoreSuggester) Suggest(ctx context.Context, req listing.SuggestionRequest) (listing.SuggestionResult, error) {
	terms := significantTerms(req.Query)
	if len(terms) == 0 {
		return listing.SuggestionResult{Suggestions: []string{}}, nil
	}

	matches, err := s.store.Query(ctx, listing.Filter{AnyTerms: terms, Limit: s.limit})
	if err != nil {
		return listing.SuggestionResult{}, fmt.Errorf("query listings: %w", err)
	}

	suggestions := make([]string, 0, len(matches))
	for _, l := range matches {
		suggestions = append(suggestions, describe(l))
	}
	return listing.SuggestionResult{Suggestions: suggestions}, nil
}

func describe(l listing.Listing) string {
	var builder strings.Builder
	builder.WriteString(l.ServiceName)
	if l.Name != "" {
		builder.WriteString(" by ")
		builder.WriteString(l.Name)
	}
	if l.Location != "" {
		builder.WriteString(" in ")
		builder.WriteString(l.Location)
	}
	if l.Charges != "" {
		builder.WriteString(" (")
		builder.WriteString(l.Charges)
		builder.WriteString(")")
	}
	return builder.String()
}

func significantTerms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		term := stem(word)
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// stem strips one common suffix so "plumber" matches "plumbing".
func stem(word string) string {
	for _, suffix := range []string{"ers", "ing", "er", "s"} {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 4 {
			return strings.TrimSuffix(word, suffix)
		}
	}
	return word
}
