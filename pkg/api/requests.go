package api

// CreateProviderRequest registers a new upstream provider.
type CreateProviderRequest struct {
	Name                string `json:"name" binding:"required"`
	Kind                string `json:"kind" binding:"required,oneof=ollama openai alias"`
	BaseURL             string `json:"base_url" binding:"omitempty,url"`
	APIKey              string `json:"api_key"`
	Prefix              string `json:"prefix"`
	Mode                string `json:"mode" binding:"omitempty,oneof=native openai"`
	ModelFilter         string `json:"model_filter"`
	SyncEnabled         *bool  `json:"sync_enabled"`
	SyncIntervalSeconds int    `json:"sync_interval_seconds" binding:"omitempty,min=0"`

	// Preset, when set, fills defaults for every field above that the
	// request leaves empty.
	Preset string `json:"preset"`
}

// UpdateProviderRequest changes provider configuration. Pointer fields
// distinguish "leave alone" from "set to zero value".
type UpdateProviderRequest struct {
	Name                *string `json:"name"`
	BaseURL             *string `json:"base_url" binding:"omitempty,url"`
	APIKey              *string `json:"api_key"`
	Prefix              *string `json:"prefix"`
	Mode                *string `json:"mode" binding:"omitempty,oneof=native openai"`
	ModelFilter         *string `json:"model_filter"`
	SyncEnabled         *bool   `json:"sync_enabled"`
	SyncIntervalSeconds *int    `json:"sync_interval_seconds" binding:"omitempty,min=0"`
}

// OverridesRequest replaces a model's operator override set wholesale.
type OverridesRequest struct {
	Overrides map[string]any `json:"overrides" binding:"required"`
}

// CreateModelRequest adds a hand-defined model to an alias provider.
type CreateModelRequest struct {
	ModelID      string         `json:"model_id" binding:"required"`
	Capabilities []string       `json:"capabilities"`
	Params       map[string]any `json:"params"`
}
