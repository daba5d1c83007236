package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/model/chat"
	chatService "github.com/dialysiscare/carebot/internal/service/chat"
	"github.com/dialysiscare/carebot/pkg/utils"
)

const keepAliveInterval = 15 * time.Second

// Handler relays session events to browsers via Server-Sent Events.
type Handler struct {
	chatSvc   *chatService.Service
	keepAlive time.Duration
	log       *zap.Logger
}

// New creates a stream handler.
func New(chatSvc *chatService.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, keepAlive: keepAliveInterval, log: log}
}

// RegisterRoutes mounts the stream route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/stream", h.handleStream)
}

// handleStream sends a snapshot event first and then every message and typing change
// until the client goes away or the session stops. An open stream keeps the session
// from being evicted as idle. Messages in the snapshot may be
// repeated by the first events; clients dedupe by message id.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		_ = utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		_ = utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	events, cancel, err := session.Subscribe()
	if err != nil {
		_ = utils.RespondError(w, http.StatusGone, err.Error())
		return
	}
	defer cancel()

	snap, err := session.Snapshot()
	if err != nil {
		_ = utils.RespondError(w, http.StatusGone, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := utils.SendSSEEvent(w, flusher, "snapshot", snap); err != nil {
		return
	}
	h.log.Debug("sse stream opened", zap.String("session", sessionID))

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("sse stream closed by client", zap.String("session", sessionID))
			return
		case ev, ok := <-events:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "closed", map[string]string{"session": sessionID})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Kind), eventPayload(ev)); err != nil {
				h.log.Warn("sse write failed", zap.String("session", sessionID), zap.Error(err))
				return
			}
		case <-ticker.C:
			session.Touch()
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}

func eventPayload(ev chat.Event) any {
	if ev.Kind == chat.EventMessage && ev.Message != nil {
		return ev.Message
	}
	return map[string]bool{"typing": ev.Typing}
}
