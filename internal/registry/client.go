// Package registry talks to the downstream model registry: a LiteLLM-style
// proxy that exposes a fixed set of named models to clients.
package registry

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/registry-sync/internal/httpclient"
)

// ModelInfo identifies one downstream registry entry.
type ModelInfo struct {
	DisplayName string
	ID          string
}

// Client is the boundary contract to the downstream registry. UpsertModel is
// an idempotent create-or-replace keyed by display name; DeleteModel exists
// for the explicit orphan-prune operation and is never called by the
// reconciliation core.
type Client interface {
	UpsertModel(ctx context.Context, displayName string, params map[string]any, info map[string]any) error
	ListModels(ctx context.Context) ([]ModelInfo, error)
	DeleteModel(ctx context.Context, id string) error
}

type httpRegistry struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds an HTTP registry client against the given base endpoint.
// The credential is opaque and passed through as a bearer token.
func New(baseURL, apiKey string, timeout time.Duration) Client {
	return &httpRegistry{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type upsertRequest struct {
	ModelName     string         `json:"model_name"`
	LiteLLMParams map[string]any `json:"litellm_params"`
	ModelInfo     map[string]any `json:"model_info,omitempty"`
}

func (r *httpRegistry) UpsertModel(ctx context.Context, displayName string, params map[string]any, info map[string]any) error {
	body := upsertRequest{
		ModelName:     displayName,
		LiteLLMParams: params,
		ModelInfo:     info,
	}
	return httpclient.SendRequest(ctx, r.client, http.MethodPost, r.baseURL+"/model/new",
		httpclient.BearerHeaders(r.apiKey), body, nil)
}

type listResponse struct {
	Data []struct {
		ModelName string `json:"model_name"`
		ModelInfo struct {
			ID string `json:"id"`
		} `json:"model_info"`
	} `json:"data"`
}

func (r *httpRegistry) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp listResponse
	if err := httpclient.SendRequest(ctx, r.client, http.MethodGet, r.baseURL+"/model/info",
		httpclient.BearerHeaders(r.apiKey), nil, &resp); err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(resp.Data))
	for _, d := range resp.Data {
		models = append(models, ModelInfo{DisplayName: d.ModelName, ID: d.ModelInfo.ID})
	}
	return models, nil
}

func (r *httpRegistry) DeleteModel(ctx context.Context, id string) error {
	body := map[string]string{"id": id}
	return httpclient.SendRequest(ctx, r.client, http.MethodPost, r.baseURL+"/model/delete",
		httpclient.BearerHeaders(r.apiKey), body, nil)
}
