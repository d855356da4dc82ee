package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/locallink/backend/internal/shape"
)

var (
	// ErrMalformedOutput 表示模型回复中没有可解析的 JSON 对象。
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrModelDisabled 表示未配置模型凭证。
	ErrModelDisabled = errors.New("chat model not configured")
)

// Invoker sends rendered prompt text to a generative model and returns the raw
// structured reply. Validation against out is left to the caller.
type Invoker interface {
	Invoke(ctx context.Context, promptText string, out shape.Shape) (any, error)
}

// ChainInvoker runs prompts through an eino chain ending in a chat model.
type ChainInvoker struct {
	chain compose.Runnable[[]*schema.Message, *schema.Message]
}

// NewChainInvoker compiles a chain around chatModel.
func NewChainInvoker(ctx context.Context, chatModel model.BaseChatModel) (*ChainInvoker, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	chain := compose.NewChain[[]*schema.Message, *schema.Message]()
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile invoker chain: %w", err)
	}

	return &ChainInvoker{chain: runnable}, nil
}

// Invoke asks the model for a single JSON object conforming to out.
func (i *ChainInvoker) Invoke(ctx context.Context, promptText string, out shape.Shape) (any, error) {
	system, err := outputInstruction(out)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(promptText),
	}

	reply, err := i.chain.Invoke(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("invoke chat model: %w", err)
	}
	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedOutput)
	}

	log.Printf("[ai] model replied shape=%s length=%d", out.Name, len(reply.Content))

	return parseJSONObject(reply.Content)
}

// DisabledInvoker fails every call; used when no model is configured.
type DisabledInvoker struct{}

// Invoke always returns ErrModelDisabled.
func (DisabledInvoker) Invoke(context.Context, string, shape.Shape) (any, error) {
	return nil, ErrModelDisabled
}

func outputInstruction(out shape.Shape) (string, error) {
	doc, err := json.MarshalIndent(out.JSONSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s schema: %w", out.Name, err)
	}

	var builder strings.Builder
	builder.WriteString("Answer with exactly one JSON object and nothing else. ")
	builder.WriteString("The object must conform to this JSON Schema. ")
	builder.WriteString("Omit optional properties you have no information for instead of sending null or empty strings.\n\n")
	builder.Write(doc)
	return builder.String(), nil
}

// parseJSONObject decodes the outermost JSON object in content; models often wrap
// it in prose or code fences.
func parseJSONObject(content string) (any, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("%w: missing json object", ErrMalformedOutput)
	}

	dec := json.NewDecoder(strings.NewReader(trimmed[start : end+1]))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return payload, nil
}
