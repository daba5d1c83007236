package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
	chatService "github.com/dialysiscare/carebot/internal/service/chat"
	"github.com/dialysiscare/carebot/pkg/utils"
)

// Handler serves the session and message endpoints.
type Handler struct {
	chatSvc  *chatService.Service
	validate *validator.Validate
	log      *zap.Logger
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		chatSvc:  chatSvc,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Post("/sessions/{sessionID}/messages", h.handleSubmit)
	r.Post("/respond", h.handleRespond)
}

type createSessionRequest struct {
	PersonaID string `json:"personaId" validate:"omitempty,max=64"`
}

type submitRequest struct {
	Content *string `json:"content" validate:"required"`
}

type respondResponse struct {
	Topic    responder.Topic `json:"topic"`
	Response string          `json:"response"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	// the body is optional
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid personaId")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.PersonaID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	snap, err := session.Snapshot()
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.chatSvc.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	accepted, err := h.chatSvc.Submit(r.Context(), sessionID, *payload.Content)
	if err != nil {
		h.log.Debug("submit rejected", zap.String("session", sessionID), zap.Error(err))
		respondError(w, statusFor(err), err.Error())
		return
	}
	if !accepted {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	topic := responder.Classify(*payload.Content)
	respondJSON(w, http.StatusOK, respondResponse{
		Topic:    topic,
		Response: responder.Reply(topic),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrPersonaNotFound),
		errors.Is(err, chatService.ErrContentTooLong):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrSessionClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	_ = utils.RespondJSON(w, status, payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	_ = utils.RespondError(w, status, message)
}
