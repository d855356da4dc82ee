package stream

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chathandler "github.com/locallink/backend/internal/handler/chat"
	"github.com/locallink/backend/internal/service/conversation"
	"github.com/locallink/backend/pkg/utils"
)

// Handler runs a conversation turn and reports it via Server-Sent Events.
type Handler struct {
	conversations *conversation.Manager
}

// New creates a new stream handler
func New(conversations *conversation.Manager) *Handler {
	return &Handler{conversations: conversations}
}

// RegisterRoutes 注册流式接口
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/stream", h.handleStream)
}

// Event is the payload of every SSE frame.
type Event struct {
	SessionID string             `json:"sessionId"`
	Pending   bool               `json:"pending,omitempty"`
	Turn      *conversation.Turn `json:"turn,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	message := r.URL.Query().Get("message")

	if strings.TrimSpace(message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	ctrl, err := h.conversations.Get(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, chathandler.ErrorStatus(err), err.Error())
		return
	}
	if ctrl.State() == conversation.StateAwaitingResponse {
		utils.RespondError(w, http.StatusConflict, conversation.ErrTurnInProgress.Error())
		return
	}

	stream, err := utils.NewSSEStream(w)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// 通知前端展示等待状态
	if err := stream.Send("start", Event{SessionID: sessionID, Pending: true}); err != nil {
		log.Printf("[stream] session=%s: %v", sessionID, err)
		return
	}

	turn, err := ctrl.Submit(r.Context(), message)
	if err != nil {
		log.Printf("[stream] session=%s submit failed: %v", sessionID, err)
		_ = stream.Send("error", Event{SessionID: sessionID, Error: err.Error()})
		return
	}

	if err := stream.Send("message", Event{SessionID: sessionID, Turn: &turn}); err != nil {
		log.Printf("[stream] session=%s: %v", sessionID, err)
		return
	}
	_ = stream.Send("end", Event{SessionID: sessionID})

	log.Printf("[stream] completed turn for session=%s intent=%s failed=%v", sessionID, turn.Intent, turn.Failed)
}
