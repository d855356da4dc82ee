package chat

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/locallink/backend/internal/model/chat"
	"github.com/locallink/backend/internal/model/listing"
	chatService "github.com/locallink/backend/internal/service/chat"
	"github.com/locallink/backend/internal/service/conversation"
	"github.com/locallink/backend/pkg/utils"
)

// Handler 聊天会话的HTTP处理器
type Handler struct {
	conversations *conversation.Manager
}

// New 创建聊天处理器
func New(conversations *conversation.Manager) *Handler {
	return &Handler{conversations: conversations}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Post("/sessions/{sessionID}/messages", h.handleSubmitMessage)
	r.Get("/sessions/{sessionID}/draft", h.handleGetDraft)
}

// TurnResponse 是一次提交的返回体。
type TurnResponse struct {
	Turn    conversation.Turn `json:"turn"`
	Session chat.View         `json:"session"`
}

// ErrorStatus maps conversation errors to HTTP status codes.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrTurnInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, err error) {
	status := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[chat] request failed: %v", err)
		utils.RespondError(w, status, "internal error")
		return
	}
	utils.RespondError(w, status, err.Error())
}

// handleCreateSession 创建会话并返回带问候语的记录
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.conversations.Open(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	view, err := ctrl.View(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.conversations.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, err)
		return
	}

	view, err := ctrl.View(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

// handleSubmitMessage 提交用户消息并等待助手回复
func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctrl, err := h.conversations.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, err)
		return
	}

	turn, err := ctrl.Submit(r.Context(), payload.Text)
	if err != nil {
		respondErr(w, err)
		return
	}

	view, err := ctrl.View(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, TurnResponse{Turn: turn, Session: view})
}

// handleGetDraft 返回最近一次提取结果合并用户资料后的表单初始值
func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.conversations.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, err)
		return
	}

	draft, ok := ctrl.LastDraft()
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "no listing draft for this session")
		return
	}

	query := r.URL.Query()
	profile := listing.Profile{
		DisplayName: strings.TrimSpace(query.Get("displayName")),
		Location:    strings.TrimSpace(query.Get("location")),
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"values":       draft.FormValues(profile),
		"responseText": draft.ResponseText,
	})
}
