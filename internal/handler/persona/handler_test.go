package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
	"github.com/dialysiscare/carebot/internal/model/persona"
)

func TestInfo(t *testing.T) {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/info", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var info Info
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &info))
	require.Equal(t, "DialysisCareBot", info.Name)
	require.Equal(t, "Your dialysis education companion", info.Tagline)
	require.Contains(t, info.Disclaimer, "educational information only")
	require.Len(t, info.Topics, len(responder.Rules()))
	require.Equal(t, responder.Emergency, info.Topics[0].Topic)
	require.Equal(t, responder.Fallback, info.Topics[len(info.Topics)-1].Topic)
}

func TestListPersonas(t *testing.T) {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/personas", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var got []persona.Persona
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, persona.DefaultID, got[0].ID)
}
