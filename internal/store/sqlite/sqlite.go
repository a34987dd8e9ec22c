package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/registry-sync/internal/store"
	"github.com/nulzo/registry-sync/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Providers() store.ProviderRepository {
	return &providerRepo{db: r.executor}
}

func (r *SqliteRepository) Models() store.ModelRepository {
	return &modelRepo{db: r.executor}
}

func (r *SqliteRepository) Outcomes() store.OutcomeRepository {
	return &outcomeRepo{db: r.executor}
}

type providerRepo struct {
	db DB
}

func (r *providerRepo) List(ctx context.Context) ([]model.Provider, error) {
	var providers []model.Provider
	err := r.db.SelectContext(ctx, &providers, `SELECT * FROM providers ORDER BY name`)
	return providers, err
}

func (r *providerRepo) ListSyncEnabled(ctx context.Context) ([]model.Provider, error) {
	var providers []model.Provider
	err := r.db.SelectContext(ctx, &providers, `SELECT * FROM providers WHERE sync_enabled = 1 ORDER BY name`)
	return providers, err
}

func (r *providerRepo) Get(ctx context.Context, id string) (*model.Provider, error) {
	var p model.Provider
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM providers WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *providerRepo) Create(ctx context.Context, p *model.Provider) error {
	query := `
	INSERT INTO providers (
		id, name, kind, base_url, api_key, prefix, mode, model_filter,
		sync_enabled, sync_interval_seconds, created_at, updated_at
	) VALUES (
		:id, :name, :kind, :base_url, :api_key, :prefix, :mode, :model_filter,
		:sync_enabled, :sync_interval_seconds, :created_at, :updated_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, p)
	return err
}

func (r *providerRepo) Update(ctx context.Context, p *model.Provider) error {
	p.UpdatedAt = time.Now().UTC()
	query := `
	UPDATE providers SET
		name = :name, kind = :kind, base_url = :base_url, api_key = :api_key,
		prefix = :prefix, mode = :mode, model_filter = :model_filter,
		sync_enabled = :sync_enabled, sync_interval_seconds = :sync_interval_seconds,
		updated_at = :updated_at
	WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, p)
	return err
}

func (r *providerRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM providers WHERE id = ?`, id)
	return err
}

type modelRepo struct {
	db DB
}

func (r *modelRepo) ListByProvider(ctx context.Context, providerID string) ([]model.Record, error) {
	var records []model.Record
	err := r.db.SelectContext(ctx, &records, `SELECT * FROM models WHERE provider_id = ? ORDER BY model_id`, providerID)
	return records, err
}

func (r *modelRepo) Get(ctx context.Context, id string) (*model.Record, error) {
	var rec model.Record
	if err := r.db.GetContext(ctx, &rec, `SELECT * FROM models WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *modelRepo) Create(ctx context.Context, rec *model.Record) error {
	query := `
	INSERT INTO models (
		id, provider_id, model_id, capabilities,
		context_window, max_input_tokens, max_output_tokens, embedding_dim,
		params, overrides, user_modified, orphaned, raw,
		first_seen, last_seen, created_at, updated_at
	) VALUES (
		:id, :provider_id, :model_id, :capabilities,
		:context_window, :max_input_tokens, :max_output_tokens, :embedding_dim,
		:params, :overrides, :user_modified, :orphaned, :raw,
		:first_seen, :last_seen, :created_at, :updated_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

// UpdateDefaults replaces only provider-derived fields. Overrides and
// user_modified never appear in this statement.
func (r *modelRepo) UpdateDefaults(ctx context.Context, rec *model.Record) error {
	rec.UpdatedAt = time.Now().UTC()
	query := `
	UPDATE models SET
		capabilities = :capabilities,
		context_window = :context_window,
		max_input_tokens = :max_input_tokens,
		max_output_tokens = :max_output_tokens,
		embedding_dim = :embedding_dim,
		params = :params,
		raw = :raw,
		orphaned = 0,
		last_seen = :last_seen,
		updated_at = :updated_at
	WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

func (r *modelRepo) SetOrphaned(ctx context.Context, id string, orphaned bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE models SET orphaned = ?, updated_at = ? WHERE id = ?`,
		orphaned, time.Now().UTC(), id)
	return err
}

func (r *modelRepo) TouchSeen(ctx context.Context, id string, seenAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE models SET last_seen = ? WHERE id = ?`, seenAt, id)
	return err
}

func (r *modelRepo) UpdateOverrides(ctx context.Context, id string, overrides model.JSONMap, userModified bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE models SET overrides = ?, user_modified = ?, updated_at = ? WHERE id = ?`,
		overrides, userModified, time.Now().UTC(), id)
	return err
}

func (r *modelRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	return err
}

type outcomeRepo struct {
	db DB
}

func (r *outcomeRepo) Get(ctx context.Context, providerID string) (*model.Outcome, error) {
	var o model.Outcome
	if err := r.db.GetContext(ctx, &o, `SELECT * FROM sync_outcomes WHERE provider_id = ?`, providerID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *outcomeRepo) Upsert(ctx context.Context, o *model.Outcome) error {
	query := `
	INSERT INTO sync_outcomes (
		provider_id, created, updated, unchanged, orphaned, reactivated,
		pushed, skipped, errored, error, orphan_ids, ran_at
	) VALUES (
		:provider_id, :created, :updated, :unchanged, :orphaned, :reactivated,
		:pushed, :skipped, :errored, :error, :orphan_ids, :ran_at
	)
	ON CONFLICT(provider_id) DO UPDATE SET
		created = excluded.created,
		updated = excluded.updated,
		unchanged = excluded.unchanged,
		orphaned = excluded.orphaned,
		reactivated = excluded.reactivated,
		pushed = excluded.pushed,
		skipped = excluded.skipped,
		errored = excluded.errored,
		error = excluded.error,
		orphan_ids = excluded.orphan_ids,
		ran_at = excluded.ran_at`
	_, err := r.db.NamedExecContext(ctx, query, o)
	return err
}

func (r *outcomeRepo) SetError(ctx context.Context, providerID, message string, ranAt time.Time) error {
	query := `
	INSERT INTO sync_outcomes (provider_id, error, ran_at)
	VALUES (?, ?, ?)
	ON CONFLICT(provider_id) DO UPDATE SET
		error = excluded.error,
		ran_at = excluded.ran_at`
	_, err := r.db.ExecContext(ctx, query, providerID, message, ranAt)
	return err
}
