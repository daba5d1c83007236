package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
	"github.com/dialysiscare/carebot/internal/model/persona"
	chatservice "github.com/dialysiscare/carebot/internal/service/chat"
)

func newTestRouter(t *testing.T, origins []string) (http.Handler, *chatservice.Service) {
	t.Helper()
	store := persona.NewMemoryStore(persona.Seed())
	chatSvc := chatservice.NewService(store, chatservice.ResponderFunc(responder.Respond),
		chatservice.Options{ReplyDelay: 10 * time.Millisecond}, nil)
	t.Cleanup(chatSvc.Close)

	r, err := NewRouter(store, chatSvc, origins, nil)
	require.NoError(t, err)
	return r, chatSvc
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t, []string{"*"})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, resp.Header().Get("Content-Type"))
}

func TestAPIRoutesMounted(t *testing.T) {
	r, chatSvc := newTestRouter(t, []string{"*"})

	for _, path := range []string{"/api/info", "/api/personas"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, resp.Code, path)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, 1, chatSvc.Len())
}

func TestOriginChecker(t *testing.T) {
	require.Nil(t, originChecker([]string{"*"}))

	check := originChecker([]string{"https://care.example"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.True(t, check(req))

	req.Header.Set("Origin", "https://care.example")
	require.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	require.False(t, check(req))
}
