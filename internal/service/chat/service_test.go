package chat_test

import (
	"context"
	"errors"
	"testing"

	modelchat "github.com/locallink/backend/internal/model/chat"
	chat "github.com/locallink/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceTranscriptIsAppendOnly(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	for _, text := range []string{"hello", "hello"} {
		if _, err := svc.AppendMessage(ctx, modelchat.Message{SessionID: session.ID, Sender: modelchat.SenderUser, Text: text}); err != nil {
			t.Fatalf("AppendMessage err: %v", err)
		}
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("identical messages must not be deduplicated, got %d", len(transcript))
	}
	if transcript[0].ID == transcript[1].ID {
		t.Fatal("expected distinct message ids")
	}

	transcript[0].Text = "mutated"
	again, _ := svc.LoadTranscript(ctx, session.ID)
	if again[0].Text != "hello" {
		t.Fatal("LoadTranscript must return a copy")
	}
}

func TestServiceAppendRejectsInvalidMessages(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	if _, err := svc.AppendMessage(ctx, modelchat.Message{SessionID: "missing", Sender: modelchat.SenderBot, Text: "hi"}); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.AppendMessage(ctx, modelchat.Message{SessionID: session.ID, Sender: "assistant", Text: "hi"}); !errors.Is(err, chat.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if _, err := svc.AppendMessage(ctx, modelchat.Message{SessionID: session.ID, Sender: modelchat.SenderBot}); !errors.Is(err, chat.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestServiceDeleteSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	session, _ := svc.CreateSession(ctx)

	if err := svc.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession err: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := svc.DeleteSession(ctx, "missing"); err != nil {
		t.Fatalf("deleting an unknown session must not fail: %v", err)
	}
}
