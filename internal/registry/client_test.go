package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nulzo/registry-sync/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertModel(t *testing.T) {
	var got upsertRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/model/new", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-admin", 5*time.Second)
	err := c.UpsertModel(context.Background(), "local/llama3",
		map[string]any{"model": "ollama/llama3", "api_base": "http://localhost:11434"},
		map[string]any{"context_window": 8192})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-admin", auth)
	assert.Equal(t, "local/llama3", got.ModelName)
	assert.Equal(t, "ollama/llama3", got.LiteLLMParams["model"])
	assert.EqualValues(t, 8192, got.ModelInfo["context_window"])
}

func TestUpsertModel_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad model"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	err := c.UpsertModel(context.Background(), "broken", map[string]any{}, nil)

	var upstream *httpclient.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/model/info", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [
			{"model_name": "local/llama3", "model_info": {"id": "abc-123"}},
			{"model_name": "local/embed", "model_info": {"id": "def-456"}}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)

	require.Len(t, models, 2)
	assert.Equal(t, "local/llama3", models[0].DisplayName)
	assert.Equal(t, "abc-123", models[0].ID)
}

func TestDeleteModel(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/model/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	require.NoError(t, c.DeleteModel(context.Background(), "abc-123"))
	assert.Equal(t, "abc-123", got["id"])
}
