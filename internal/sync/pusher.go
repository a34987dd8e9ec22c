package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nulzo/registry-sync/internal/cache"
	"github.com/nulzo/registry-sync/internal/registry"
	"github.com/nulzo/registry-sync/internal/store/model"
)

// PushStatus classifies the outcome of one push attempt.
type PushStatus string

const (
	StatusPushed  PushStatus = "pushed"
	StatusSkipped PushStatus = "skipped"
	StatusFailed  PushStatus = "failed"
)

// PushResult reports what happened to one model during the push phase.
type PushResult struct {
	DisplayName string
	Status      PushStatus
	Err         error
}

// Pusher propagates effective model definitions to the downstream registry,
// skipping any model whose payload is materially identical to the last
// successful push. Snapshots survive only as long as the cache does; a cold
// start repushes everything once, which the registry absorbs as an idempotent
// upsert.
type Pusher struct {
	registry  registry.Client
	snapshots cache.Service
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *zap.Logger
}

// NewPusher wires a pusher against the given registry client. The limiter is
// shared across all providers so that concurrent passes stay under the
// registry's aggregate rate.
func NewPusher(reg registry.Client, snapshots cache.Service, limiter *rate.Limiter, timeout time.Duration, logger *zap.Logger) *Pusher {
	return &Pusher{
		registry:  reg,
		snapshots: snapshots,
		limiter:   limiter,
		timeout:   timeout,
		logger:    logger,
	}
}

func snapshotKey(providerID, modelID string) string {
	return "snapshot:" + providerID + "/" + modelID
}

// PushIfChanged sends one model downstream unless its payload matches the
// stored snapshot. A failed push leaves the snapshot untouched so the next
// pass retries, and never disturbs the model's reconciliation state.
func (p *Pusher) PushIfChanged(ctx context.Context, prov *model.Provider, eff Effective) PushResult {
	payload := buildPayload(prov, eff)

	var last map[string]any
	err := p.snapshots.Get(ctx, snapshotKey(prov.ID, eff.ModelID), &last)
	switch {
	case err == nil:
		if equalFolded(payload, last) {
			return PushResult{DisplayName: eff.DisplayName, Status: StatusSkipped}
		}
	case errors.Is(err, cache.ErrNotFound):
		// first push for this model
	default:
		p.logger.Warn("snapshot lookup failed, pushing unconditionally",
			zap.String("model", eff.DisplayName), zap.Error(err))
	}

	pushCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.limiter.Wait(pushCtx); err != nil {
		return PushResult{
			DisplayName: eff.DisplayName,
			Status:      StatusFailed,
			Err:         &PushError{DisplayName: eff.DisplayName, Err: err},
		}
	}

	params, info := splitPayload(payload)
	if err := p.registry.UpsertModel(pushCtx, eff.DisplayName, params, info); err != nil {
		return PushResult{
			DisplayName: eff.DisplayName,
			Status:      StatusFailed,
			Err:         &PushError{DisplayName: eff.DisplayName, Err: err},
		}
	}

	if err := p.snapshots.Set(ctx, snapshotKey(prov.ID, eff.ModelID), payload, 0); err != nil {
		p.logger.Warn("snapshot write failed", zap.String("model", eff.DisplayName), zap.Error(err))
	}

	return PushResult{DisplayName: eff.DisplayName, Status: StatusPushed}
}

// buildPayload assembles the complete downstream definition for one model.
// The snapshot is taken over this whole structure so that a change to any
// part, connection detail or metadata alike, triggers a push.
func buildPayload(prov *model.Provider, eff Effective) map[string]any {
	params := map[string]any{
		"model": modelReference(prov, eff.ModelID),
	}
	if prov.BaseURL != "" {
		params["api_base"] = prov.BaseURL
	}
	if prov.APIKey != "" {
		params["api_key"] = prov.APIKey
	}
	for k, v := range eff.Params {
		params[k] = v
	}

	info := map[string]any{}
	if len(eff.Capabilities) > 0 {
		info["capabilities"] = eff.Capabilities
	}
	if eff.ContextWindow != nil {
		info["context_window"] = *eff.ContextWindow
	}
	if eff.MaxInputTokens != nil {
		info["max_input_tokens"] = *eff.MaxInputTokens
	}
	if eff.MaxOutputTokens != nil {
		info["max_output_tokens"] = *eff.MaxOutputTokens
	}
	if eff.EmbeddingDim != nil {
		info["embedding_dim"] = *eff.EmbeddingDim
	}

	return map[string]any{
		"litellm_params": params,
		"model_info":     info,
	}
}

func splitPayload(payload map[string]any) (params, info map[string]any) {
	params, _ = payload["litellm_params"].(map[string]any)
	info, _ = payload["model_info"].(map[string]any)
	if len(info) == 0 {
		info = nil
	}
	return params, info
}

// modelReference builds the routing target the registry dispatches to. An
// Ollama provider running in openai-compatible mode routes through the
// openai adapter against its own base URL.
func modelReference(prov *model.Provider, modelID string) string {
	switch prov.Kind {
	case model.KindOllama:
		if prov.Mode == "openai" {
			return "openai/" + modelID
		}
		return "ollama/" + modelID
	case model.KindOpenAI:
		return "openai/" + modelID
	default:
		return modelID
	}
}
