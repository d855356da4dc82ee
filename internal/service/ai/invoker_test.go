package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/locallink/backend/internal/shape"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

var testShape = shape.Shape{
	Name: "TestOutput",
	Fields: []shape.Field{
		{Name: "responseText", Kind: shape.String, Required: true},
	},
}

func newTestInvoker(t *testing.T, fake *fakeChatModel) *ChainInvoker {
	t.Helper()
	invoker, err := NewChainInvoker(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewChainInvoker err: %v", err)
	}
	return invoker
}

func TestChainInvokerParsesFencedJSON(t *testing.T) {
	fake := &fakeChatModel{reply: "```json\n{\"responseText\": \"hi\", \"count\": 2}\n```"}
	invoker := newTestInvoker(t, fake)

	got, err := invoker.Invoke(context.Background(), "prompt text", testShape)
	if err != nil {
		t.Fatalf("Invoke err: %v", err)
	}

	obj, ok := got.(map[string]any)
	if !ok || obj["responseText"] != "hi" {
		t.Fatalf("unexpected payload %#v", got)
	}

	if len(fake.input) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(fake.input))
	}
	if !strings.Contains(fake.input[0].Content, "TestOutput") {
		t.Fatal("expected schema in system message")
	}
	if fake.input[1].Content != "prompt text" {
		t.Fatalf("expected prompt as user message, got %q", fake.input[1].Content)
	}
}

func TestChainInvokerMalformedOutput(t *testing.T) {
	for _, reply := range []string{"I cannot help with that", "{not json}", "   "} {
		invoker := newTestInvoker(t, &fakeChatModel{reply: reply})
		if _, err := invoker.Invoke(context.Background(), "p", testShape); !errors.Is(err, ErrMalformedOutput) {
			t.Fatalf("reply %q: expected ErrMalformedOutput, got %v", reply, err)
		}
	}
}

func TestChainInvokerModelError(t *testing.T) {
	invoker := newTestInvoker(t, &fakeChatModel{err: errors.New("quota exceeded")})

	_, err := invoker.Invoke(context.Background(), "p", testShape)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrMalformedOutput) {
		t.Fatal("transport errors must not be reported as malformed output")
	}
}

func TestDisabledInvoker(t *testing.T) {
	if _, err := (DisabledInvoker{}).Invoke(context.Background(), "p", testShape); !errors.Is(err, ErrModelDisabled) {
		t.Fatalf("expected ErrModelDisabled, got %v", err)
	}
}
