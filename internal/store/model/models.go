package model

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Provider kinds. 'alias' providers are push-only: their models are defined
// by hand and mapped onto another provider's connection parameters.
const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
	KindAlias  = "alias"
)

// Capability labels attached to canonical model records.
const (
	CapChat      = "chat"
	CapEmbedding = "embedding"
	CapVision    = "vision"
	CapReasoning = "reasoning"
	CapCode      = "code"
)

// JSONMap is a map stored as a JSON text column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *JSONMap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported JSONMap source type %T", src)
	}
}

// StringSlice is a string list stored as a JSON text column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringSlice) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = StringSlice{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported StringSlice source type %T", src)
	}
}

// Contains reports whether the slice holds the given value.
func (s StringSlice) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// Provider is an upstream source of models.
type Provider struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Kind                string    `db:"kind" json:"kind"`
	BaseURL             string    `db:"base_url" json:"base_url"`
	APIKey              string    `db:"api_key" json:"-"`
	Prefix              string    `db:"prefix" json:"prefix"`
	Mode                string    `db:"mode" json:"mode"`
	ModelFilter         string    `db:"model_filter" json:"model_filter"`
	SyncEnabled         bool      `db:"sync_enabled" json:"sync_enabled"`
	SyncIntervalSeconds int       `db:"sync_interval_seconds" json:"sync_interval_seconds"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName is the downstream registry key for one of this provider's
// models: the configured prefix followed by the provider-scoped model id.
func (p *Provider) DisplayName(modelID string) string {
	return p.Prefix + modelID
}

// Record is the canonical, provider-agnostic representation of one upstream
// model. ModelID is the provider's own name for the model, never prefixed.
// Params holds provider-derived canonical parameters; Overrides holds
// operator-supplied values that must survive automatic resync.
type Record struct {
	ID              string      `db:"id" json:"id"`
	ProviderID      string      `db:"provider_id" json:"provider_id"`
	ModelID         string      `db:"model_id" json:"model_id"`
	Capabilities    StringSlice `db:"capabilities" json:"capabilities"`
	ContextWindow   *int64      `db:"context_window" json:"context_window,omitempty"`
	MaxInputTokens  *int64      `db:"max_input_tokens" json:"max_input_tokens,omitempty"`
	MaxOutputTokens *int64      `db:"max_output_tokens" json:"max_output_tokens,omitempty"`
	EmbeddingDim    *int64      `db:"embedding_dim" json:"embedding_dim,omitempty"`
	Params          JSONMap     `db:"params" json:"params"`
	Overrides       JSONMap     `db:"overrides" json:"overrides"`
	UserModified    bool        `db:"user_modified" json:"user_modified"`
	Orphaned        bool        `db:"orphaned" json:"orphaned"`
	Raw             []byte      `db:"raw" json:"-"`
	FirstSeen       time.Time   `db:"first_seen" json:"first_seen"`
	LastSeen        time.Time   `db:"last_seen" json:"last_seen"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// Outcome is the persisted result of the last reconciliation pass for a
// provider. A failed fetch records Error so callers can tell "provider
// unreachable" apart from "provider has zero models".
type Outcome struct {
	ProviderID  string         `db:"provider_id" json:"provider_id"`
	Created     int            `db:"created" json:"created"`
	Updated     int            `db:"updated" json:"updated"`
	Unchanged   int            `db:"unchanged" json:"unchanged"`
	Orphaned    int            `db:"orphaned" json:"orphaned"`
	Reactivated int            `db:"reactivated" json:"reactivated"`
	Pushed      int            `db:"pushed" json:"pushed"`
	Skipped     int            `db:"skipped" json:"skipped"`
	Errored     int            `db:"errored" json:"errored"`
	Error       sql.NullString `db:"error" json:"error,omitempty"`
	OrphanIDs   StringSlice    `db:"orphan_ids" json:"orphan_ids"`
	RanAt       time.Time      `db:"ran_at" json:"ran_at"`
}
