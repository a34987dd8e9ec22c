package normalize

import (
	"encoding/json"
	"strings"

	"github.com/nulzo/registry-sync/internal/store/model"
)

func init() {
	register(model.KindOpenAI, func(keys Keys) Normalizer {
		return &openaiNormalizer{keys: keys}
	})
}

// openaiNormalizer handles /v1/models entries from OpenAI-compatible APIs.
// Aggregators decorate the bare schema very differently (OpenRouter nests
// limits under top_provider, others put them at the top level), so limits are
// searched rather than read from fixed locations.
type openaiNormalizer struct {
	keys Keys
}

func (n *openaiNormalizer) Kind() string { return model.KindOpenAI }

func (n *openaiNormalizer) Normalize(raw json.RawMessage) (*Canonical, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: n.Kind(), Reason: "not a JSON object"}
	}

	id, _ := payload["id"].(string)
	if id == "" {
		return nil, &Error{Kind: n.Kind(), Reason: "missing id field"}
	}

	reported := reportedCapabilities(payload)
	caps := inferCapabilities(id, reported)

	rec := &Canonical{
		ModelID:      id,
		Capabilities: caps,
		Params:       map[string]any{},
		Raw:          raw,
	}

	rec.ContextWindow = findInt(payload, n.keys.Context)
	rec.MaxInputTokens = findInt(payload, n.keys.MaxInput)

	if isEmbedding(caps) {
		rec.EmbeddingDim = findInt(payload, n.keys.Embedding)
	} else {
		rec.MaxOutputTokens = findInt(payload, n.keys.MaxOutput)
	}

	if ownedBy, ok := payload["owned_by"].(string); ok && ownedBy != "" {
		rec.Params["owned_by"] = ownedBy
	}

	// pricing is passed through opaque; the registry decides what to do with it
	if pricing, ok := payload["pricing"].(map[string]any); ok {
		if v, ok := pricing["prompt"]; ok {
			rec.Params["input_cost_per_token"] = v
		}
		if v, ok := pricing["completion"]; ok {
			rec.Params["output_cost_per_token"] = v
		}
	}

	return rec, nil
}

// reportedCapabilities mines aggregator metadata for capability signals:
// an architecture modality like "text+image->text" implies vision, an
// output_modalities or supported feature list may name them directly.
func reportedCapabilities(payload map[string]any) []string {
	var reported []string

	if arch, ok := payload["architecture"].(map[string]any); ok {
		if modality, ok := arch["modality"].(string); ok {
			if strings.Contains(modality, "image") {
				reported = append(reported, model.CapVision)
			}
			if strings.Contains(modality, "embedding") {
				reported = append(reported, model.CapEmbedding)
			}
		}
		if inputs, ok := arch["input_modalities"].([]any); ok {
			for _, in := range inputs {
				if s, ok := in.(string); ok && s == "image" {
					reported = append(reported, model.CapVision)
				}
			}
		}
	}

	if params, ok := payload["supported_parameters"].([]any); ok {
		for _, p := range params {
			if s, ok := p.(string); ok && (s == "reasoning" || s == "include_reasoning") {
				reported = append(reported, "thinking")
			}
		}
	}

	return reported
}
