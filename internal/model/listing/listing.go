package listing

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidListing 表示提交的表单值不满足创建条件。
var ErrInvalidListing = errors.New("invalid listing")

// Listing is a persisted service offer.
type Listing struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	ServiceName  string    `json:"serviceName"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	Availability string    `json:"availability"`
	Charges      string    `json:"charges"`
	Contact      string    `json:"contact"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FieldError 指出未通过校验的表单字段。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates the form fields that failed.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidListing, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidListing
}

type lengthRule struct {
	field   string
	min     int
	max     int
	message string
}

var formRules = []lengthRule{
	{field: "serviceName", min: 3, max: 100, message: "Service name is too short"},
	{field: "description", min: 10, max: 500, message: "Description is too short"},
	{field: "availability", min: 2, message: "Availability is required"},
	{field: "charges", min: 1, message: "Charges are required"},
	{field: "contact", min: 10, message: "A valid contact is required"},
}

// NewListing trims and validates form values and returns a listing ready to be stored.
// ID and CreatedAt are assigned by the store.
func NewListing(userID string, values FormValues) (Listing, error) {
	l := Listing{
		UserID:       strings.TrimSpace(userID),
		Name:         strings.TrimSpace(values.Name),
		ServiceName:  strings.TrimSpace(values.ServiceName),
		Description:  strings.TrimSpace(values.Description),
		Location:     strings.TrimSpace(values.Location),
		Availability: strings.TrimSpace(values.Availability),
		Charges:      strings.TrimSpace(values.Charges),
		Contact:      strings.TrimSpace(values.Contact),
		ImageURL:     strings.TrimSpace(values.ImageURL),
	}

	var problems []FieldError
	if l.UserID == "" {
		problems = append(problems, FieldError{Field: "userId", Message: "userId is required"})
	}

	byField := map[string]string{
		"serviceName":  l.ServiceName,
		"description":  l.Description,
		"availability": l.Availability,
		"charges":      l.Charges,
		"contact":      l.Contact,
	}
	for _, rule := range formRules {
		n := utf8.RuneCountInString(byField[rule.field])
		switch {
		case n < rule.min:
			problems = append(problems, FieldError{Field: rule.field, Message: rule.message})
		case rule.max > 0 && n > rule.max:
			problems = append(problems, FieldError{Field: rule.field, Message: fmt.Sprintf("must be at most %d characters", rule.max)})
		}
	}

	if len(problems) > 0 {
		return Listing{}, &ValidationError{Fields: problems}
	}
	return l, nil
}

// Services returns the distinct service names in first-seen order, led by "all".
func Services(listings []Listing) []string {
	seen := make(map[string]struct{}, len(listings))
	out := []string{AllServices}
	for _, l := range listings {
		if _, ok := seen[l.ServiceName]; ok {
			continue
		}
		seen[l.ServiceName] = struct{}{}
		out = append(out, l.ServiceName)
	}
	return out
}
