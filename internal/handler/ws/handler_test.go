package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/locallink/backend/internal/model/listing"
	chatservice "github.com/locallink/backend/internal/service/chat"
	"github.com/locallink/backend/internal/service/conversation"
)

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, listing.ExtractionRequest) (listing.Draft, error) {
	return listing.Draft{Fields: listing.Fields{ServiceName: "Tailoring"}, ResponseText: "Noted, tailoring it is."}, nil
}

type stubSuggester struct{}

func (stubSuggester) Suggest(context.Context, listing.SuggestionRequest) (listing.SuggestionResult, error) {
	return listing.SuggestionResult{Suggestions: []string{}}, nil
}

type frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
}

func dial(t *testing.T) (*websocket.Conn, string) {
	t.Helper()
	manager := conversation.NewManager(chatservice.NewService(), stubExtractor{}, stubSuggester{}, conversation.Options{})
	ctrl, err := manager.Open(context.Background())
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	r := chi.NewRouter()
	New(manager).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + ctrl.SessionID() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, ctrl.SessionID()
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWebSocketConversation(t *testing.T) {
	conn, sessionID := dial(t)

	first := readFrame(t, conn)
	if first.Type != TypeTranscript || first.SessionID != sessionID {
		t.Fatalf("expected transcript frame first, got %+v", first)
	}

	if err := conn.WriteJSON(InboundMessage{Type: "message", Text: "I provide tailoring"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := readFrame(t, conn)
	if got.Type != TypeTurn {
		t.Fatalf("expected turn frame, got %+v", got)
	}

	var turn conversation.Turn
	if err := json.Unmarshal(got.Data, &turn); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	if turn.Intent != "offer" || turn.Reply.Text != "Noted, tailoring it is." {
		t.Fatalf("unexpected turn %+v", turn)
	}
}

func TestWebSocketErrors(t *testing.T) {
	conn, _ := dial(t)
	readFrame(t, conn)

	if err := conn.WriteJSON(InboundMessage{Type: "message", Text: "  "}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := readFrame(t, conn); f.Type != TypeError || f.Error != conversation.ErrEmptyInput.Error() {
		t.Fatalf("expected empty input error, got %+v", f)
	}

	if err := conn.WriteJSON(InboundMessage{Type: "audio"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := readFrame(t, conn); f.Type != TypeError || !strings.Contains(f.Error, "unsupported") {
		t.Fatalf("expected unsupported type error, got %+v", f)
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	manager := conversation.NewManager(chatservice.NewService(), stubExtractor{}, stubSuggester{}, conversation.Options{})
	r := chi.NewRouter()
	New(manager).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/missing/ws", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

type hangingExtractor struct{}

func (hangingExtractor) Extract(ctx context.Context, _ listing.ExtractionRequest) (listing.Draft, error) {
	<-ctx.Done()
	return listing.Draft{}, ctx.Err()
}

func TestWebSocketSurvivesTurnLongerThanReadTimeout(t *testing.T) {
	manager := conversation.NewManager(chatservice.NewService(), hangingExtractor{}, stubSuggester{}, conversation.Options{
		TurnTimeout: 400 * time.Millisecond,
	})
	ctrl, err := manager.Open(context.Background())
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	h := New(manager)
	h.readTimeout = 150 * time.Millisecond
	h.pingInterval = 40 * time.Millisecond

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + ctrl.SessionID() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readFrame(t, conn)
	if err := conn.WriteJSON(InboundMessage{Type: "message", Text: "I sell pickles"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := readFrame(t, conn)
	if got.Type != TypeTurn {
		t.Fatalf("expected turn frame, got %+v", got)
	}
	var turn conversation.Turn
	if err := json.Unmarshal(got.Data, &turn); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	if !turn.Failed || turn.Reply.Text != conversation.Apology {
		t.Fatalf("expected timed-out turn to apologise, got %+v", turn)
	}

	// the socket must still serve requests after the failed turn
	if err := conn.WriteJSON(InboundMessage{Type: "transcript"}); err != nil {
		t.Fatalf("write transcript request: %v", err)
	}
	if f := readFrame(t, conn); f.Type != TypeTranscript {
		t.Fatalf("expected transcript frame, got %+v", f)
	}
}
