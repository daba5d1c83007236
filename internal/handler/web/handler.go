// Package web serves the server-rendered chat page.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/model/chat"
	"github.com/dialysiscare/carebot/internal/model/persona"
	"github.com/dialysiscare/carebot/internal/render"
	chatService "github.com/dialysiscare/carebot/internal/service/chat"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler renders the chat page and accepts form posts.
type Handler struct {
	chatSvc  *chatService.Service
	personas persona.Store
	tpl      *template.Template
	md       *render.Renderer
	log      *zap.Logger
}

// MsgView is one rendered message bubble. Assistant messages carry HTML rendered from
// markdown; user messages carry Text and are shown verbatim.
type MsgView struct {
	ID   string
	Role chat.Role
	HTML template.HTML
	Text string
	At   string
}

type pageData struct {
	Persona   persona.Persona
	SessionID string
	Messages  []MsgView
	Typing    bool
	Error     string
}

// New parses the embedded templates.
func New(chatSvc *chatService.Service, personas persona.Store, log *zap.Logger) (*Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		chatSvc:  chatSvc,
		personas: personas,
		tpl:      tpl,
		md:       render.New(),
		log:      log,
	}, nil
}

// RegisterRoutes mounts the page routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Post("/chat", h.ChatPost)
	r.Post("/new", h.NewSession)
}

// Home shows the conversation named by ?s=, starting a new one when it is missing or gone.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sid := strings.TrimSpace(r.URL.Query().Get("s"))
	if sid == "" {
		h.NewSession(w, r)
		return
	}

	snap, err := h.chatSvc.Snapshot(r.Context(), sid)
	if errors.Is(err, chatService.ErrSessionNotFound) || errors.Is(err, chatService.ErrSessionClosed) {
		h.NewSession(w, r)
		return
	}
	if err != nil {
		h.log.Error("load snapshot", zap.String("session", sid), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p, ok := h.personas.FindByID(snap.Session.PersonaID)
	if !ok {
		p = h.personas.Default()
	}
	h.render(w, http.StatusOK, pageData{
		Persona:   p,
		SessionID: sid,
		Messages:  h.views(snap.Messages),
		Typing:    snap.Typing,
		Error:     r.URL.Query().Get("err"),
	})
}

// ChatPost submits the form text and redirects back to the page.
func (h *Handler) ChatPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	sid := r.PostForm.Get("session_id")
	if sid == "" {
		h.NewSession(w, r)
		return
	}

	target := "/?s=" + url.QueryEscape(sid)
	if _, err := h.chatSvc.Submit(r.Context(), sid, r.PostForm.Get("message")); err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			h.NewSession(w, r)
			return
		}
		target += "&err=" + url.QueryEscape(err.Error())
	}
	http.Redirect(w, r, target+"#bottom", http.StatusSeeOther)
}

// NewSession starts a conversation and redirects to it.
func (h *Handler) NewSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context(), "")
	if err != nil {
		h.log.Error("create session", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/?s="+url.QueryEscape(session.Info().ID), http.StatusSeeOther)
}

func (h *Handler) views(messages []chat.Message) []MsgView {
	return lo.Map(messages, func(m chat.Message, _ int) MsgView {
		v := MsgView{
			ID:   m.ID,
			Role: m.Role,
			At:   render.Clock(m.CreatedAt),
		}
		if m.Role == chat.RoleAssistant {
			v.HTML = h.md.HTML(m.Content)
		} else {
			v.Text = m.Content
		}
		return v
	})
}

func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.tpl.ExecuteTemplate(w, "chat.html", data); err != nil {
		h.log.Error("template execute", zap.Error(err))
	}
}
