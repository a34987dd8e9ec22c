// Package normalize converts raw provider payloads into canonical model
// records. Each provider kind has its own Normalizer variant registered in a
// closed set; shared code never branches on kind strings.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nulzo/registry-sync/internal/store/model"
)

// Canonical is the normalized, provider-agnostic form of one upstream model.
// Absent optional fields stay nil; a missing context window is "unknown",
// never a guessed default.
type Canonical struct {
	ModelID         string
	Capabilities    []string
	ContextWindow   *int64
	MaxInputTokens  *int64
	MaxOutputTokens *int64
	EmbeddingDim    *int64
	Params          map[string]any
	Raw             json.RawMessage
}

// Error signals a payload that cannot be parsed as the provider's declared
// kind at all. Partial payloads are not errors.
type Error struct {
	Kind   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot normalize %s payload: %s", e.Kind, e.Reason)
}

// Normalizer is one provider-kind variant. Implementations are pure
// functions of the payload and their construction-time configuration.
type Normalizer interface {
	Kind() string
	Normalize(raw json.RawMessage) (*Canonical, error)
}

// Keys lists the payload locations searched for numeric limits. Provider
// families keep inventing new key names (often architecture-prefixed, e.g.
// "llama.context_length"), so the tables are extendable via configuration.
type Keys struct {
	Context   []string
	MaxInput  []string
	MaxOutput []string
	Embedding []string
}

// DefaultKeys covers the provider families seen in the wild so far.
func DefaultKeys() Keys {
	return Keys{
		Context: []string{
			"context_length", "context_window", "max_context_length",
			"max_model_len", "max_position_embeddings", "num_ctx",
		},
		MaxInput:  []string{"max_input_tokens", "max_prompt_tokens"},
		MaxOutput: []string{"max_output_tokens", "max_completion_tokens", "max_tokens"},
		Embedding: []string{
			"embedding_length", "embedding_dimension", "output_dimension",
			"dimensions", "hidden_size",
		},
	}
}

// Extend appends extra key names to each table.
func (k Keys) Extend(context, embedding []string) Keys {
	k.Context = append(append([]string{}, k.Context...), context...)
	k.Embedding = append(append([]string{}, k.Embedding...), embedding...)
	return k
}

type constructor func(keys Keys) Normalizer

var kinds = map[string]constructor{}

func register(kind string, ctor constructor) {
	kinds[kind] = ctor
}

// ForKind returns the normalizer variant for a provider kind.
func ForKind(kind string, keys Keys) (Normalizer, error) {
	ctor, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("no normalizer for provider kind %q", kind)
	}
	return ctor(keys), nil
}

// findInt searches a decoded payload for the first of the wanted keys,
// descending into nested objects. A map key matches a wanted name either
// exactly or with an architecture prefix ("llama.context_length" matches
// "context_length"). Returns nil when nothing plausible is found.
func findInt(node any, wanted []string) *int64 {
	m, ok := node.(map[string]any)
	if !ok {
		return nil
	}

	for _, want := range wanted {
		for key, value := range m {
			if key == want || strings.HasSuffix(key, "."+want) {
				if n, ok := asInt64(value); ok && n > 0 {
					return &n
				}
			}
		}
	}

	for _, value := range m {
		if child, ok := value.(map[string]any); ok {
			if n := findInt(child, wanted); n != nil {
				return n
			}
		}
	}

	return nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%f", &f); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

var (
	embeddingHints = []string{"embed"}
	visionHints    = []string{"vision", "llava", "image"}
	reasoningHints = []string{"reason", "think", "r1"}
	codeHints      = []string{"code"}
)

// inferCapabilities derives the capability set from the model name plus any
// capability strings the provider reports directly. Deterministic: the same
// inputs always produce the same set. An embedding signal wins outright and
// yields an embedding-only set.
func inferCapabilities(modelID string, reported []string) []string {
	name := strings.ToLower(modelID)

	has := func(hints []string, cap string) bool {
		for _, r := range reported {
			if strings.EqualFold(r, cap) {
				return true
			}
		}
		for _, h := range hints {
			if strings.Contains(name, h) {
				return true
			}
		}
		return false
	}

	if has(embeddingHints, model.CapEmbedding) {
		return []string{model.CapEmbedding}
	}

	caps := []string{model.CapChat}
	if has(visionHints, model.CapVision) {
		caps = append(caps, model.CapVision)
	}
	if has(reasoningHints, "thinking") {
		caps = append(caps, model.CapReasoning)
	}
	if has(codeHints, model.CapCode) {
		caps = append(caps, model.CapCode)
	}
	return caps
}

func isEmbedding(caps []string) bool {
	return len(caps) == 1 && caps[0] == model.CapEmbedding
}
