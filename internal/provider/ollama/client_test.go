package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchModels_MergesShowDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models": [
				{"name": "llama3:8b", "details": {"family": "llama", "parameter_size": "8B"}}
			]}`))
		case "/api/show":
			var req showRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama3:8b", req.Model)
			_, _ = w.Write([]byte(`{
				"capabilities": ["completion"],
				"model_info": {"llama.context_length": 8192}
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, "", zap.NewNop())
	models, err := c.FetchModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)

	var merged map[string]any
	require.NoError(t, json.Unmarshal(models[0], &merged))
	assert.Equal(t, "llama3:8b", merged["name"])
	assert.Contains(t, merged, "capabilities")
	info, ok := merged["model_info"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 8192, info["llama.context_length"])
}

func TestFetchModels_ShowFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models": [{"name": "llama3:8b"}]}`))
		case "/api/show":
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, "", zap.NewNop())
	models, err := c.FetchModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(models[0], &entry))
	assert.Equal(t, "llama3:8b", entry["name"])
}

func TestFetchModels_TagsFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, "", zap.NewNop())
	_, err := c.FetchModels(context.Background())
	require.Error(t, err)
}

func TestFetchModels_Filter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models": [
				{"name": "llama3:8b"}, {"name": "nomic-embed-text"}
			]}`))
		case "/api/show":
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, "embed", zap.NewNop())
	models, err := c.FetchModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(models[0], &entry))
	assert.Equal(t, "nomic-embed-text", entry["name"])
}
