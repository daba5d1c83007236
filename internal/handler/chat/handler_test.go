package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
	"github.com/dialysiscare/carebot/internal/model/chat"
	"github.com/dialysiscare/carebot/internal/model/persona"
	chatservice "github.com/dialysiscare/carebot/internal/service/chat"
)

func setupRouter(t *testing.T) (*chi.Mux, *chatservice.Service) {
	t.Helper()
	chatSvc := chatservice.NewService(
		persona.NewMemoryStore(persona.Seed()),
		chatservice.ResponderFunc(responder.Respond),
		chatservice.Options{ReplyDelay: 10 * time.Millisecond, MaxMessageLength: 50},
		nil,
	)
	t.Cleanup(chatSvc.Close)

	r := chi.NewRouter()
	New(chatSvc, nil).RegisterRoutes(r)
	return r, chatSvc
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) chat.Snapshot {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/sessions", map[string]string{})
	require.Equal(t, http.StatusCreated, resp.Code)

	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snap))
	return snap
}

func TestCreateSessionSeedsWelcome(t *testing.T) {
	r, _ := setupRouter(t)
	snap := createSession(t, r)

	require.NotEmpty(t, snap.Session.ID)
	require.Equal(t, persona.DefaultID, snap.Session.PersonaID)
	require.Len(t, snap.Messages, 1)
	require.Equal(t, chatservice.WelcomeID, snap.Messages[0].ID)
	require.Equal(t, chat.RoleAssistant, snap.Messages[0].Role)
	require.False(t, snap.Typing)
}

func TestCreateSessionWithoutBody(t *testing.T) {
	r, _ := setupRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code)
}

func TestCreateSessionInvalidPersona(t *testing.T) {
	r, _ := setupRouter(t)
	resp := do(t, r, http.MethodPost, "/sessions", map[string]string{"personaId": "socrates"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter(t)
	resp := do(t, r, http.MethodGet, "/sessions/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.JSONEq(t, `{"error":"session not found"}`, resp.Body.String())
}

func TestSubmitStatuses(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r).Session.ID
	path := "/sessions/" + id + "/messages"

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"blank is ignored", path, map[string]string{"content": "   "}, http.StatusOK},
		{"missing content", path, map[string]string{}, http.StatusBadRequest},
		{"too long", path, map[string]string{"content": strings.Repeat("a", 51)}, http.StatusBadRequest},
		{"unknown session", "/sessions/missing/messages", map[string]string{"content": "hi"}, http.StatusNotFound},
		{"accepted", path, map[string]string{"content": "What should I eat?"}, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, r, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.want, resp.Code, resp.Body.String())
		})
	}
}

func TestSubmitInvalidBody(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r).Session.ID

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/messages", strings.NewReader("{"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitProducesReply(t *testing.T) {
	r, _ := setupRouter(t)
	id := createSession(t, r).Session.ID

	resp := do(t, r, http.MethodPost, "/sessions/"+id+"/messages", map[string]string{"content": "I feel scared"})
	require.Equal(t, http.StatusAccepted, resp.Code)
	require.JSONEq(t, `{"status":"accepted"}`, resp.Body.String())

	var snap chat.Snapshot
	require.Eventually(t, func() bool {
		resp := do(t, r, http.MethodGet, "/sessions/"+id, nil)
		if resp.Code != http.StatusOK {
			return false
		}
		snap = chat.Snapshot{}
		if err := json.Unmarshal(resp.Body.Bytes(), &snap); err != nil {
			return false
		}
		return len(snap.Messages) == 3
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, chat.RoleUser, snap.Messages[1].Role)
	require.Equal(t, "I feel scared", snap.Messages[1].Content)
	require.Equal(t, chat.RoleAssistant, snap.Messages[2].Role)
	require.Equal(t, responder.Reply(responder.EmotionalSupport), snap.Messages[2].Content)
	require.False(t, snap.Typing)
}

func TestRespondEndpoint(t *testing.T) {
	r, _ := setupRouter(t)

	resp := do(t, r, http.MethodPost, "/respond", map[string]string{"content": "Is this an EMERGENCY?"})
	require.Equal(t, http.StatusOK, resp.Code)

	var got respondResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Equal(t, responder.Emergency, got.Topic)
	require.Equal(t, responder.Respond("emergency"), got.Response)

	resp = do(t, r, http.MethodPost, "/respond", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
