package normalize

import (
	"encoding/json"

	"github.com/nulzo/registry-sync/internal/store/model"
)

func init() {
	register(model.KindOllama, func(keys Keys) Normalizer {
		return &ollamaNormalizer{keys: keys}
	})
}

// ollamaNormalizer handles payloads from local runtimes speaking the Ollama
// API. The fetch client merges the /api/tags entry with the /api/show detail
// response, so a payload may carry model_info (flat, architecture-prefixed
// keys), details, and a reported capabilities list, or none of them.
type ollamaNormalizer struct {
	keys Keys
}

func (n *ollamaNormalizer) Kind() string { return model.KindOllama }

func (n *ollamaNormalizer) Normalize(raw json.RawMessage) (*Canonical, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: n.Kind(), Reason: "not a JSON object"}
	}

	id, _ := payload["name"].(string)
	if id == "" {
		id, _ = payload["model"].(string)
	}
	if id == "" {
		return nil, &Error{Kind: n.Kind(), Reason: "missing model name"}
	}

	var reported []string
	if rawCaps, ok := payload["capabilities"].([]any); ok {
		for _, c := range rawCaps {
			if s, ok := c.(string); ok {
				reported = append(reported, s)
			}
		}
	}

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
		// embedding models have no completion output to cap
		rec.EmbeddingDim = findInt(payload, n.keys.Embedding)
	} else {
		rec.MaxOutputTokens = findInt(payload, n.keys.MaxOutput)
	}

	if details, ok := payload["details"].(map[string]any); ok {
		if family, ok := details["family"].(string); ok && family != "" {
			rec.Params["family"] = family
		}
		if size, ok := details["parameter_size"].(string); ok && size != "" {
			rec.Params["parameter_size"] = size
		}
		if quant, ok := details["quantization_level"].(string); ok && quant != "" {
			rec.Params["quantization_level"] = quant
		}
	}

	return rec, nil
}
