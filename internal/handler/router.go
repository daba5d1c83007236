package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dialysiscare/carebot/internal/handler/chat"
	"github.com/dialysiscare/carebot/internal/handler/persona"
	"github.com/dialysiscare/carebot/internal/handler/socket"
	"github.com/dialysiscare/carebot/internal/handler/stream"
	"github.com/dialysiscare/carebot/internal/handler/web"
	middlewarePkg "github.com/dialysiscare/carebot/internal/middleware"
	personaModel "github.com/dialysiscare/carebot/internal/model/persona"
	chatService "github.com/dialysiscare/carebot/internal/service/chat"
	"github.com/dialysiscare/carebot/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, allowedOrigins []string, log *zap.Logger) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	webHandler, err := web.New(chatSvc, personas, log)
	if err != nil {
		return nil, fmt.Errorf("load web templates: %w", err)
	}
	webHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": chatSvc.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(personas).RegisterRoutes(api)
		chat.New(chatSvc, log).RegisterRoutes(api)
		stream.New(chatSvc, log).RegisterRoutes(api)
		socket.New(chatSvc, originChecker(allowedOrigins), log).RegisterRoutes(api)
	})

	return r, nil
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowed, origin)
	}
}
