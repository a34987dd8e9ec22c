// Package provider fetches raw model listings from upstream runtimes and
// APIs. Clients return provider-shaped JSON untouched; normalization happens
// one layer up.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/registry-sync/internal/provider/ollama"
	"github.com/nulzo/registry-sync/internal/provider/openai"
	"github.com/nulzo/registry-sync/internal/store/model"
)

// Client fetches the current model inventory from one upstream provider.
// Each element is the provider's own payload for one model.
type Client interface {
	FetchModels(ctx context.Context) ([]json.RawMessage, error)
}

// Factory builds fetch clients for stored provider configurations.
type Factory struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewFactory(timeout time.Duration, logger *zap.Logger) *Factory {
	return &Factory{timeout: timeout, logger: logger}
}

// ClientFor returns a fetch client for the provider's kind. Alias providers
// have no upstream to fetch from and are rejected here; their passes are
// push-only and never reach the fetch phase.
func (f *Factory) ClientFor(p *model.Provider) (Client, error) {
	switch p.Kind {
	case model.KindOllama:
		return ollama.New(p.BaseURL, f.timeout, p.ModelFilter, f.logger), nil
	case model.KindOpenAI:
		return openai.New(p.BaseURL, p.APIKey, f.timeout, p.ModelFilter), nil
	default:
		return nil, fmt.Errorf("no fetch client for provider kind %q", p.Kind)
	}
}
