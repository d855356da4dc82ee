package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chathandler "github.com/locallink/backend/internal/handler/chat"
	"github.com/locallink/backend/internal/service/conversation"
	"github.com/locallink/backend/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Outbound frame types.
const (
	TypeTranscript = "transcript"
	TypeTurn       = "turn"
	TypeError      = "error"
)

// Handler WebSocket 会话处理器
type Handler struct {
	conversations *conversation.Manager
	upgrader      websocket.Upgrader
	readTimeout   time.Duration
	pingInterval  time.Duration
}

// New 创建WebSocket处理器
func New(conversations *conversation.Manager) *Handler {
	return &Handler{
		conversations: conversations,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout:  readTimeout,
		pingInterval: pingInterval,
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

// InboundMessage is a frame sent by the client.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OutboundMessage is a frame sent to the client.
type OutboundMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// connWriter serializes writes; gorilla allows one concurrent writer.
type connWriter struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
}

func (c *connWriter) send(msg OutboundMessage) error {
	msg.SessionID = c.sessionID
	msg.Timestamp = time.Now().UnixMilli()

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *connWriter) sendError(message string) {
	if err := c.send(OutboundMessage{Type: TypeError, Error: message}); err != nil {
		log.Printf("[websocket] session=%s failed to send error: %v", c.sessionID, err)
	}
}

func (c *connWriter) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ctrl, err := h.conversations.Get(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, chathandler.ErrorStatus(err), err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	// turns still running see the cancellation before the socket closes
	var turns sync.WaitGroup
	defer turns.Wait()
	defer cancel()

	out := &connWriter{conn: conn, sessionID: sessionID}

	_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go pingLoop(ctx, out, h.pingInterval)

	view, err := ctrl.View(ctx)
	if err != nil {
		out.sendError("failed to load transcript")
		return
	}
	if err := out.send(OutboundMessage{Type: TypeTranscript, Data: view}); err != nil {
		return
	}

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		h.handleMessage(ctx, out, ctrl, msg, &turns)
	}
}

// handleMessage 处理一条入站消息。对话轮次在独立 goroutine 中运行，
// 读循环因此能在模型调用期间继续处理 pong。
func (h *Handler) handleMessage(ctx context.Context, out *connWriter, ctrl *conversation.Controller, msg InboundMessage, turns *sync.WaitGroup) {
	switch msg.Type {
	case "message":
		turns.Add(1)
		go func() {
			defer turns.Done()
			turn, err := ctrl.Submit(ctx, msg.Text)
			if err != nil {
				out.sendError(err.Error())
				return
			}
			if err := out.send(OutboundMessage{Type: TypeTurn, Data: turn}); err != nil {
				log.Printf("[websocket] session=%s failed to send turn: %v", out.sessionID, err)
			}
		}()
	case "transcript":
		view, err := ctrl.View(ctx)
		if err != nil {
			out.sendError("failed to load transcript")
			return
		}
		_ = out.send(OutboundMessage{Type: TypeTranscript, Data: view})
	default:
		out.sendError("unsupported message type: " + msg.Type)
	}
}

func pingLoop(ctx context.Context, out *connWriter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := out.ping(); err != nil {
				log.Printf("[websocket] ping failed: %v", err)
				return
			}
		}
	}
}
