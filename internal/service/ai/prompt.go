package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

var (
	ErrUnknownTemplate = errors.New("unknown prompt template")
	ErrMissingParam    = errors.New("missing prompt parameter")
	ErrInvalidTemplate = errors.New("invalid prompt template")
)

// TemplateID names one of the assistant's prompts.
type TemplateID string

const (
	GuideListingCreation TemplateID = "guideListingCreation"
	SuggestListings      TemplateID = "suggestListings"
)

// PromptTemplate defines the instruction text and the parameters it substitutes.
type PromptTemplate struct {
	ID     TemplateID
	Params []string
	Text   string
}

// PromptEngine renders instruction text for the model.
type PromptEngine struct {
	templates map[TemplateID]*PromptTemplate
}

// NewPromptEngine creates an engine with the default templates. overrides replaces the
// text of a template by id; every declared parameter must still be referenced.
func NewPromptEngine(overrides map[string]string) (*PromptEngine, error) {
	engine := &PromptEngine{templates: make(map[TemplateID]*PromptTemplate)}
	engine.loadDefaultTemplates()

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		tpl, ok := engine.templates[TemplateID(id)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
		}
		text := overrides[id]
		for _, param := range tpl.Params {
			if !strings.Contains(text, "{"+param+"}") {
				return nil, fmt.Errorf("%w: override %s must reference {%s}", ErrInvalidTemplate, id, param)
			}
		}
		tpl.Text = text

		// 字面量花括号需写成 {{ }}，否则每次渲染都会失败
		sample := make(map[string]string, len(tpl.Params))
		for _, param := range tpl.Params {
			sample[param] = param
		}
		if _, err := engine.Render(tpl.ID, sample); err != nil {
			return nil, fmt.Errorf("%w: override %s: %v", ErrInvalidTemplate, id, err)
		}
	}

	return engine, nil
}

// GetPromptTemplate returns the template registered under id.
func (pe *PromptEngine) GetPromptTemplate(id TemplateID) (*PromptTemplate, error) {
	tpl, ok := pe.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	return tpl, nil
}

// Render substitutes params verbatim into the template text.
func (pe *PromptEngine) Render(id TemplateID, params map[string]string) (string, error) {
	tpl, err := pe.GetPromptTemplate(id)
	if err != nil {
		return "", err
	}

	vars := make(map[string]any, len(tpl.Params))
	for _, name := range tpl.Params {
		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("%w: %s.%s", ErrMissingParam, id, name)
		}
		vars[name] = value
	}

	chatTemplate := prompt.FromMessages(schema.FString, schema.UserMessage(tpl.Text))
	messages, err := chatTemplate.Format(context.Background(), vars)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", id, err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("render %s: empty output", id)
	}
	return messages[0].Content, nil
}

func (pe *PromptEngine) loadDefaultTemplates() {
	pe.templates[GuideListingCreation] = &PromptTemplate{
		ID:     GuideListingCreation,
		Params: []string{"userInput"},
		Text: `You are a helpful assistant for LocalLink, a platform to connect local skills with community needs. A user wants to offer a service. Your job is to analyze their request and extract key information to pre-fill a listing form.

From the user's input, extract as much of the following information as possible:
- name: The full name of the person offering the service.
- serviceName: The name of the service or product.
- description: A detailed description.
- location: The neighborhood, city, or PIN code.
- availability: The hours or days they are available.
- charges: The price or rate for their service.
- contact: A phone number or email address.

It is crucial that you DO NOT make up any information. If a field is not mentioned, leave it out entirely.

After extracting the data, compose a friendly 'responseText'. In the response, briefly summarize the information you've gathered and let them know you're preparing a form for them to review and complete their listing.

User Input: {userInput}`,
	}

	pe.templates[SuggestListings] = &PromptTemplate{
		ID:     SuggestListings,
		Params: []string{"query"},
		Text: `You are a helpful assistant that suggests local services based on user queries.

Given the following user query, suggest relevant service listings:

Query: {query}

Provide a list of suggestions. Each suggestion should be a concise description of the service.`,
	}
}
