// Package openai fetches model inventories from OpenAI-compatible APIs,
// including aggregators that decorate entries with pricing and modality
// metadata.
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/registry-sync/internal/httpclient"
)

type Client struct {
	baseURL string
	apiKey  string
	filter  string
	client  *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration, filter string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		filter:  filter,
		client:  &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Data []json.RawMessage `json:"data"`
}

// FetchModels lists the endpoint's models. Entries pass through as the
// upstream sent them; the filter is a plain substring match on the id.
func (c *Client) FetchModels(ctx context.Context) ([]json.RawMessage, error) {
	var resp listResponse
	if err := httpclient.SendRequest(ctx, c.client, http.MethodGet, c.modelsURL(),
		httpclient.BearerHeaders(c.apiKey), nil, &resp); err != nil {
		return nil, err
	}

	if c.filter == "" {
		return resp.Data, nil
	}

	out := make([]json.RawMessage, 0, len(resp.Data))
	for _, raw := range resp.Data {
		var entry struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if strings.Contains(entry.ID, c.filter) {
			out = append(out, raw)
		}
	}
	return out, nil
}

func (c *Client) modelsURL() string {
	if strings.HasSuffix(c.baseURL, "/v1") {
		return c.baseURL + "/models"
	}
	return c.baseURL + "/v1/models"
}
