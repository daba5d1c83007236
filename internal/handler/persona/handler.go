package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
	"github.com/dialysiscare/carebot/internal/model/persona"
	"github.com/dialysiscare/carebot/pkg/utils"
)

// Handler serves what the assistant is and what it can talk about.
type Handler struct {
	personas persona.Store
}

// New creates the persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes mounts the persona routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/info", h.handleInfo)
	r.Get("/personas", h.handleListPersonas)
}

// Topic is one supported conversation category.
type Topic struct {
	Topic    responder.Topic `json:"topic"`
	Keywords []string        `json:"keywords,omitempty"`
}

// Info describes the default assistant for client headers and banners.
type Info struct {
	Name        string  `json:"name"`
	Tagline     string  `json:"tagline"`
	Disclaimer  string  `json:"disclaimer"`
	Placeholder string  `json:"placeholder"`
	InputHint   string  `json:"inputHint"`
	Topics      []Topic `json:"topics"`
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	p := h.personas.Default()
	_ = utils.RespondJSON(w, http.StatusOK, Info{
		Name:        p.Name,
		Tagline:     p.Title,
		Disclaimer:  p.Disclaimer,
		Placeholder: p.Placeholder,
		InputHint:   p.InputHint,
		Topics: lo.Map(responder.Rules(), func(rule responder.Rule, _ int) Topic {
			return Topic{Topic: rule.Topic, Keywords: rule.Keywords}
		}),
	})
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	_ = utils.RespondJSON(w, http.StatusOK, h.personas.List())
}
