package listing

import (
	"sort"
	"strings"
)

// AllServices disables the service filter.
const AllServices = "all"

// Filter selects listings. Zero value matches everything.
type Filter struct {
	// UserID restricts results to one owner when non-empty.
	UserID string
	// Keyword must appear in name, service name, description or location.
	Keyword string
	// Service must equal the listing's service name exactly unless empty or "all".
	Service string
	// AnyTerms matches when at least one term appears in the searchable text.
	AnyTerms []string
	// Limit caps the result size; 0 means unlimited.
	Limit int
}

// Matches reports whether l satisfies the filter.
func (f Filter) Matches(l Listing) bool {
	if userID := strings.TrimSpace(f.UserID); userID != "" && l.UserID != userID {
		return false
	}
	if f.Service != "" && f.Service != AllServices && l.ServiceName != f.Service {
		return false
	}

	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	if keyword != "" && !containsAny(l, []string{keyword}) {
		return false
	}

	if len(f.AnyTerms) > 0 && !containsAny(l, f.AnyTerms) {
		return false
	}
	return true
}

// Apply filters listings, orders them newest first and applies the limit.
func (f Filter) Apply(listings []Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if f.Matches(l) {
			out = append(out, l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func containsAny(l Listing, terms []string) bool {
	fields := []string{
		strings.ToLower(l.Name),
		strings.ToLower(l.ServiceName),
		strings.ToLower(l.Description),
		strings.ToLower(l.Location),
	}
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		for _, field := range fields {
			if strings.Contains(field, term) {
				return true
			}
		}
	}
	return false
}
