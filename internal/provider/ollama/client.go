// Package ollama fetches model inventories from a local Ollama runtime.
package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/registry-sync/internal/httpclient"
)

type Client struct {
	baseURL string
	filter  string
	client  *http.Client
	logger  *zap.Logger
}

func New(baseURL string, timeout time.Duration, filter string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		filter:  filter,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type tagsResponse struct {
	Models []map[string]any `json:"models"`
}

type showRequest struct {
	Model string `json:"model"`
}

// FetchModels lists the runtime's installed models and enriches each with its
// detail payload. The tags listing carries identity and quantization details;
// the show endpoint carries context sizes, embedding dimensions and
// capability flags. A failed show degrades that one model to its tags entry.
func (c *Client) FetchModels(ctx context.Context) ([]json.RawMessage, error) {
	var tags tagsResponse
	if err := httpclient.SendRequest(ctx, c.client, http.MethodGet, c.baseURL+"/api/tags",
		nil, nil, &tags); err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(tags.Models))
	for _, entry := range tags.Models {
		name, _ := entry["name"].(string)
		if name == "" {
			name, _ = entry["model"].(string)
		}
		if c.filter != "" && !strings.Contains(name, c.filter) {
			continue
		}

		if name != "" {
			var detail map[string]any
			err := httpclient.SendRequest(ctx, c.client, http.MethodPost, c.baseURL+"/api/show",
				nil, showRequest{Model: name}, &detail)
			if err != nil {
				c.logger.Warn("model detail lookup failed, using listing entry only",
					zap.String("model", name), zap.Error(err))
			} else {
				entry = mergeDetail(entry, detail)
			}
		}

		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// mergeDetail layers the show payload over the tags entry. The tags entry
// wins on identity fields so a model never changes name mid-merge.
func mergeDetail(entry, detail map[string]any) map[string]any {
	merged := make(map[string]any, len(entry)+len(detail))
	for k, v := range detail {
		merged[k] = v
	}
	for k, v := range entry {
		merged[k] = v
	}
	return merged
}
