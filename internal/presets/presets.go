// Package presets ships ready-made provider configurations for well-known
// OpenAI-compatible endpoints and local runtimes, so an operator can bootstrap
// a deployment without looking up base URLs.
package presets

import (
	"sort"

	"github.com/nulzo/registry-sync/internal/store/model"
)

// Preset is a provider template. Credentials are never part of a preset; the
// operator supplies them at creation time.
type Preset struct {
	Slug           string `json:"slug"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	BaseURL        string `json:"base_url"`
	Prefix         string `json:"prefix"`
	RequiresAPIKey bool   `json:"requires_api_key"`
	Notes          string `json:"notes,omitempty"`
}

var catalog = map[string]Preset{
	"ollama-local": {
		Slug:    "ollama-local",
		Name:    "Ollama (local)",
		Kind:    model.KindOllama,
		BaseURL: "http://localhost:11434",
		Prefix:  "local/",
		Notes:   "Default local runtime endpoint.",
	},
	"openrouter": {
		Slug:           "openrouter",
		Name:           "OpenRouter",
		Kind:           model.KindOpenAI,
		BaseURL:        "https://openrouter.ai/api/v1",
		Prefix:         "openrouter/",
		RequiresAPIKey: true,
		Notes:          "Aggregator; listings carry pricing and modality metadata.",
	},
	"groq": {
		Slug:           "groq",
		Name:           "Groq",
		Kind:           model.KindOpenAI,
		BaseURL:        "https://api.groq.com/openai/v1",
		Prefix:         "groq/",
		RequiresAPIKey: true,
	},
	"mistral": {
		Slug:           "mistral",
		Name:           "Mistral",
		Kind:           model.KindOpenAI,
		BaseURL:        "https://api.mistral.ai/v1",
		Prefix:         "mistral/",
		RequiresAPIKey: true,
	},
	"cerebras": {
		Slug:           "cerebras",
		Name:           "Cerebras",
		Kind:           model.KindOpenAI,
		BaseURL:        "https://api.cerebras.ai/v1",
		Prefix:         "cerebras/",
		RequiresAPIKey: true,
	},
	"together": {
		Slug:           "together",
		Name:           "Together AI",
		Kind:           model.KindOpenAI,
		BaseURL:        "https://api.together.xyz/v1",
		Prefix:         "together/",
		RequiresAPIKey: true,
	},
}

// All returns every preset, sorted by slug.
func All() []Preset {
	out := make([]Preset, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// BySlug looks up one preset.
func BySlug(slug string) (Preset, bool) {
	p, ok := catalog[slug]
	return p, ok
}

// Provider materializes the preset as a provider row. The caller fills in
// the ID, credentials and any interval before persisting.
func (p Preset) Provider() model.Provider {
	return model.Provider{
		Name:        p.Name,
		Kind:        p.Kind,
		BaseURL:     p.BaseURL,
		Prefix:      p.Prefix,
		SyncEnabled: true,
	}
}
