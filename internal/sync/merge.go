package sync

import (
	"github.com/nulzo/registry-sync/internal/store/model"
)

// Canonical field names recognized in an override set. Anything else in the
// overrides is treated as a plain parameter and merged into Params.
const (
	FieldCapabilities    = "capabilities"
	FieldContextWindow   = "context_window"
	FieldMaxInputTokens  = "max_input_tokens"
	FieldMaxOutputTokens = "max_output_tokens"
	FieldEmbeddingDim    = "embedding_dim"
)

// Effective is the override-merged form of a record, the only representation
// ever sent downstream.
type Effective struct {
	ProviderID      string
	ModelID         string
	DisplayName     string
	Capabilities    []string
	ContextWindow   *int64
	MaxInputTokens  *int64
	MaxOutputTokens *int64
	EmbeddingDim    *int64
	Params          map[string]any
}

// Merge combines a record's provider-derived defaults with its override set:
// for every field the override value wins when present, otherwise the default
// is taken. Unrecognized parameters pass through from whichever source
// defines them, override winning on conflict. Total function, invoked exactly
// once per model per pass; every consumer reads its output.
func Merge(p *model.Provider, rec *model.Record) Effective {
	eff := Effective{
		ProviderID:      rec.ProviderID,
		ModelID:         rec.ModelID,
		DisplayName:     p.DisplayName(rec.ModelID),
		Capabilities:    append([]string{}, rec.Capabilities...),
		ContextWindow:   rec.ContextWindow,
		MaxInputTokens:  rec.MaxInputTokens,
		MaxOutputTokens: rec.MaxOutputTokens,
		EmbeddingDim:    rec.EmbeddingDim,
		Params:          make(map[string]any, len(rec.Params)+len(rec.Overrides)),
	}

	for k, v := range rec.Params {
		eff.Params[k] = v
	}

	for key, value := range rec.Overrides {
		switch key {
		case FieldCapabilities:
			if caps := toStringSlice(value); caps != nil {
				eff.Capabilities = caps
			}
		case FieldContextWindow:
			eff.ContextWindow = toInt64Ptr(value)
		case FieldMaxInputTokens:
			eff.MaxInputTokens = toInt64Ptr(value)
		case FieldMaxOutputTokens:
			eff.MaxOutputTokens = toInt64Ptr(value)
		case FieldEmbeddingDim:
			eff.EmbeddingDim = toInt64Ptr(value)
		default:
			eff.Params[key] = value
		}
	}

	return eff
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toInt64Ptr(v any) *int64 {
	switch t := v.(type) {
	case int64:
		return &t
	case int:
		n := int64(t)
		return &n
	case float64:
		n := int64(t)
		return &n
	}
	return nil
}
