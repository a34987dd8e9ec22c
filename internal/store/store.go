package store

import (
	"context"
	"time"

	"github.com/nulzo/registry-sync/internal/store/model"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Providers() ProviderRepository
	Models() ModelRepository
	Outcomes() OutcomeRepository

	// WithTx runs fn against a repository bound to a single transaction.
	// A reconciliation pass applies all of its mutations through one call
	// so that a mid-pass failure rolls the whole pass back.
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type ProviderRepository interface {
	// List returns all providers.
	List(ctx context.Context) ([]model.Provider, error)
	// ListSyncEnabled returns providers with the sync flag set.
	ListSyncEnabled(ctx context.Context) ([]model.Provider, error)
	Get(ctx context.Context, id string) (*model.Provider, error)
	Create(ctx context.Context, p *model.Provider) error
	Update(ctx context.Context, p *model.Provider) error
	// Delete removes a provider; its models cascade.
	Delete(ctx context.Context, id string) error
}

type ModelRepository interface {
	// ListByProvider returns every record for a provider, orphaned included.
	ListByProvider(ctx context.Context, providerID string) ([]model.Record, error)
	Get(ctx context.Context, id string) (*model.Record, error)
	Create(ctx context.Context, rec *model.Record) error
	// UpdateDefaults replaces the provider-derived fields of a record
	// (capabilities, context sizes, params, raw payload, last_seen) and
	// clears the orphan flag. Overrides and user_modified are untouched.
	UpdateDefaults(ctx context.Context, rec *model.Record) error
	SetOrphaned(ctx context.Context, id string, orphaned bool) error
	// TouchSeen bumps last_seen without touching anything else.
	TouchSeen(ctx context.Context, id string, seenAt time.Time) error
	// UpdateOverrides replaces the operator override set.
	UpdateOverrides(ctx context.Context, id string, overrides model.JSONMap, userModified bool) error
	Delete(ctx context.Context, id string) error
}

type OutcomeRepository interface {
	Get(ctx context.Context, providerID string) (*model.Outcome, error)
	Upsert(ctx context.Context, o *model.Outcome) error
	// SetError records a failed pass without clobbering the counts of the
	// last successful pass.
	SetError(ctx context.Context, providerID, message string, ranAt time.Time) error
}
