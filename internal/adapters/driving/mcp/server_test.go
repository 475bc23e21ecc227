package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil query service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Query: &mockQueryService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		var ports *Ports
		assert.ErrorIs(t, ports.Validate(), ErrMissingQueryService)
	})

	t.Run("nil query service returns error", func(t *testing.T) {
		ports := &Ports{Ingest: &mockIngestService{}}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("query only is valid", func(t *testing.T) {
		ports := &Ports{
			Query: &mockQueryService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Query:   &mockQueryService{},
			Router:  &mockRouterService{},
			Ingest:  &mockIngestService{},
			History: &mockHistoryService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}

func fullPorts() *Ports {
	return &Ports{
		Query:   &mockQueryService{},
		Router:  &mockRouterService{},
		Ingest:  &mockIngestService{},
		History: &mockHistoryService{},
	}
}

func TestServer_ReadOnlyOmitsMutatingTools(t *testing.T) {
	server, err := NewServer(fullPorts(), WithReadOnly())
	require.NoError(t, err)

	assert.Equal(t, []string{"ask", "route", "search_index"}, listTools(t, server))
}

func getHealth(t *testing.T, server *Server) Health {
	t.Helper()
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var h Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	return h
}

func TestServer_Healthz(t *testing.T) {
	server, err := NewServer(fullPorts(), WithVersion("1.2.3"), WithReadOnly())
	require.NoError(t, err)

	h := getHealth(t, server)

	assert.Equal(t, "UP", h.Status)
	assert.Equal(t, "sercha-rag", h.Service)
	assert.Equal(t, "1.2.3", h.Version)
	assert.True(t, h.ReadOnly)
	assert.False(t, h.Time.IsZero())
	require.NotNil(t, h.Index)
	assert.Equal(t, 2, h.Index.DocumentCount)
	assert.Equal(t, 10, h.Index.VocabularySize)
}

func TestServer_HealthzWithoutIngest(t *testing.T) {
	server, err := NewServer(&Ports{Query: &mockQueryService{}}, WithVersion(""))
	require.NoError(t, err)

	h := getHealth(t, server)

	assert.Equal(t, defaultVersion, h.Version)
	assert.False(t, h.ReadOnly)
	assert.Nil(t, h.Index)
}
