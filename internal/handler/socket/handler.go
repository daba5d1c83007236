package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/model/chat"
	chatService "github.com/dialysiscare/carebot/internal/service/chat"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	outboxSize = 16
)

// Handler serves the live chat socket for one session.
type Handler struct {
	chatSvc   *chatService.Service
	upgrader  websocket.Upgrader
	pingEvery time.Duration
	log       *zap.Logger
}

// New creates a socket handler. checkOrigin may be nil to accept any origin.
func New(chatSvc *chatService.Service, checkOrigin func(r *http.Request) bool, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingEvery: pingPeriod,
		log:       log,
	}
}

// RegisterRoutes mounts the socket route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage carries one user submission.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe, err := session.Subscribe()
	if err != nil {
		h.writeClose(conn, websocket.CloseGoingAway, err.Error())
		return
	}
	defer unsubscribe()

	snap, err := session.Snapshot()
	if err != nil {
		h.writeClose(conn, websocket.CloseGoingAway, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbox := make(chan outgoingMessage, outboxSize)
	outbox <- h.envelope(sessionID, "snapshot", snap)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, session, events, outbox)
		cancel()
		// unblocks readLoop
		_ = conn.Close()
	}()

	h.log.Debug("websocket connected", zap.String("session", sessionID))
	h.readLoop(ctx, conn, session, outbox)
	cancel()
	<-writerDone
	h.log.Debug("websocket disconnected", zap.String("session", sessionID))
}

// readLoop handles inbound frames until the peer leaves. Replies to the peer go through
// outbox so only writeLoop touches the connection for writing.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, session *chatService.Session, outbox chan<- outgoingMessage) {
	sessionID := session.Info().ID
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if errMsg := h.handleMessage(ctx, session, msg); errMsg != "" {
			select {
			case outbox <- h.envelope(sessionID, "error", map[string]string{"message": errMsg}):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, session *chatService.Session, msg inboundMessage) string {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			return "invalid text payload"
		}
		if _, err := h.chatSvc.Submit(ctx, session.Info().ID, text.Text); err != nil {
			if errors.Is(err, chatService.ErrContentTooLong) || errors.Is(err, chatService.ErrSessionClosed) {
				return err.Error()
			}
			h.log.Error("websocket submit failed", zap.String("session", session.Info().ID), zap.Error(err))
			return "submit failed"
		}
		return ""
	default:
		return "unsupported message type: " + msg.Type
	}
}

// writeLoop is the only writer on conn. Each ping also touches the session so a
// connected client keeps it alive.
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, session *chatService.Session, events <-chan chat.Event, outbox <-chan outgoingMessage) {
	sessionID := session.Info().ID
	ticker := time.NewTicker(h.pingEvery)
	defer ticker.Stop()

	for {
		var out outgoingMessage
		select {
		case <-ctx.Done():
			return
		case out = <-outbox:
		case ev, ok := <-events:
			if !ok {
				h.writeClose(conn, websocket.CloseGoingAway, "session closed")
				return
			}
			out = h.eventEnvelope(sessionID, ev)
		case <-ticker.C:
			session.Touch()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(out); err != nil {
			h.log.Debug("websocket write failed", zap.String("session", sessionID), zap.Error(err))
			return
		}
	}
}

func (h *Handler) eventEnvelope(sessionID string, ev chat.Event) outgoingMessage {
	if ev.Kind == chat.EventMessage && ev.Message != nil {
		return h.envelope(sessionID, string(chat.EventMessage), ev.Message)
	}
	return h.envelope(sessionID, string(chat.EventTyping), map[string]bool{"typing": ev.Typing})
}

func (h *Handler) envelope(sessionID, kind string, data any) outgoingMessage {
	return outgoingMessage{
		Type:      kind,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

func (h *Handler) writeClose(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}
