// Package sync implements the reconciliation engine: fetch, normalize, diff,
// persist, push. A pass is per provider and providers never block each other.
package sync

import (
	"context"
	"encoding/json"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nulzo/registry-sync/internal/provider"
	"github.com/nulzo/registry-sync/internal/store"
	"github.com/nulzo/registry-sync/internal/store/model"
	"github.com/nulzo/registry-sync/internal/sync/normalize"
)

// ClientFactory yields fetch clients for provider configurations.
// *provider.Factory is the production implementation.
type ClientFactory interface {
	ClientFor(p *model.Provider) (provider.Client, error)
}

// Service runs reconciliation passes. At most one pass per provider is in
// flight at any time; a second trigger gets ErrSyncInFlight instead of
// queueing.
type Service struct {
	repo         store.Repository
	factory      ClientFactory
	pusher       *Pusher
	keys         normalize.Keys
	workers      int
	fetchTimeout time.Duration
	logger       *zap.Logger

	mu       stdsync.Mutex
	inflight map[string]bool
}

func NewService(repo store.Repository, factory ClientFactory, pusher *Pusher, keys normalize.Keys, workers int, fetchTimeout time.Duration, logger *zap.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		repo:         repo,
		factory:      factory,
		pusher:       pusher,
		keys:         keys,
		workers:      workers,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		inflight:     make(map[string]bool),
	}
}

func (s *Service) acquire(providerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[providerID] {
		return false
	}
	s.inflight[providerID] = true
	return true
}

func (s *Service) release(providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, providerID)
}

// SyncProvider runs one full pass for the given provider and returns its
// persisted outcome. A fetch failure aborts the pass before any stored state
// changes; per-model normalization failures skip just that model.
func (s *Service) SyncProvider(ctx context.Context, providerID string) (*model.Outcome, error) {
	if !s.acquire(providerID) {
		return nil, ErrSyncInFlight
	}
	defer s.release(providerID)

	prov, err := s.repo.Providers().Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if prov.Kind == model.KindAlias {
		return s.runAliasPass(ctx, prov)
	}
	return s.runPass(ctx, prov)
}

// SyncAll runs passes for every sync-enabled provider. One provider's
// failure never stops the others.
func (s *Service) SyncAll(ctx context.Context) ([]*model.Outcome, error) {
	providers, err := s.repo.Providers().ListSyncEnabled(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]*model.Outcome, 0, len(providers))
	for i := range providers {
		outcome, err := s.SyncProvider(ctx, providers[i].ID)
		if err != nil {
			s.logger.Warn("provider pass failed",
				zap.String("provider", providers[i].Name), zap.Error(err))
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *Service) runPass(ctx context.Context, prov *model.Provider) (*model.Outcome, error) {
	now := time.Now().UTC()

	fetched, err := s.fetch(ctx, prov)
	if err != nil {
		ferr := &FetchError{ProviderID: prov.ID, Err: err}
		if serr := s.repo.Outcomes().SetError(ctx, prov.ID, ferr.Error(), now); serr != nil {
			s.logger.Error("recording fetch failure failed", zap.Error(serr))
		}
		return nil, ferr
	}

	normalized, errored := s.normalize(prov, fetched)

	stored, err := s.repo.Models().ListByProvider(ctx, prov.ID)
	if err != nil {
		return nil, err
	}

	plan := Reconcile(prov.ID, normalized, stored)

	if err := s.apply(ctx, prov, plan, now); err != nil {
		return nil, err
	}

	pushed, skipped, pushErrs := s.pushAll(ctx, prov)

	outcome := &model.Outcome{
		ProviderID:  prov.ID,
		Created:     plan.Count(ActionCreate),
		Updated:     plan.Count(ActionUpdateDefaults),
		Unchanged:   plan.Count(ActionUnchanged),
		Orphaned:    plan.Count(ActionMarkOrphan),
		Reactivated: plan.Count(ActionReactivate),
		Pushed:      pushed,
		Skipped:     skipped,
		Errored:     errored + pushErrs,
		OrphanIDs:   plan.OrphanIDs(),
		RanAt:       now,
	}
	if err := s.repo.Outcomes().Upsert(ctx, outcome); err != nil {
		return nil, err
	}

	s.logger.Info("pass complete",
		zap.String("provider", prov.Name),
		zap.Int("created", outcome.Created),
		zap.Int("updated", outcome.Updated),
		zap.Int("unchanged", outcome.Unchanged),
		zap.Int("orphaned", outcome.Orphaned),
		zap.Int("pushed", outcome.Pushed),
		zap.Int("skipped", outcome.Skipped),
		zap.Int("errored", outcome.Errored))
	return outcome, nil
}

// runAliasPass handles push-only providers. Their records are maintained by
// hand through the API, so there is nothing to fetch or reconcile; the pass
// just keeps the registry in step with the stored definitions.
func (s *Service) runAliasPass(ctx context.Context, prov *model.Provider) (*model.Outcome, error) {
	now := time.Now().UTC()

	pushed, skipped, pushErrs := s.pushAll(ctx, prov)

	outcome := &model.Outcome{
		ProviderID: prov.ID,
		Pushed:     pushed,
		Skipped:    skipped,
		Errored:    pushErrs,
		RanAt:      now,
	}
	if err := s.repo.Outcomes().Upsert(ctx, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *Service) fetch(ctx context.Context, prov *model.Provider) ([]json.RawMessage, error) {
	client, err := s.factory.ClientFor(prov)
	if err != nil {
		return nil, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return client.FetchModels(fetchCtx)
}

func (s *Service) normalize(prov *model.Provider, raws []json.RawMessage) ([]*normalize.Canonical, int) {
	norm, err := normalize.ForKind(prov.Kind, s.keys)
	if err != nil {
		s.logger.Error("no normalizer for kind", zap.String("kind", prov.Kind))
		return nil, len(raws)
	}

	out := make([]*normalize.Canonical, 0, len(raws))
	errored := 0
	for _, raw := range raws {
		rec, err := norm.Normalize(raw)
		if err != nil {
			errored++
			s.logger.Warn("payload rejected",
				zap.String("provider", prov.Name), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, errored
}

// apply commits a plan in one transaction so a mid-pass failure leaves the
// store exactly as the pass found it.
func (s *Service) apply(ctx context.Context, prov *model.Provider, plan Plan, now time.Time) error {
	return s.repo.WithTx(ctx, func(repo store.Repository) error {
		for _, entry := range plan.Entries {
			var err error
			switch entry.Action {
			case ActionCreate:
				err = repo.Models().Create(ctx, newRecord(prov.ID, entry.Fetched, now))
			case ActionUpdateDefaults, ActionReactivate:
				err = repo.Models().UpdateDefaults(ctx, applyDefaults(entry.Stored, entry.Fetched, now))
			case ActionUnchanged:
				err = repo.Models().TouchSeen(ctx, entry.Stored.ID, now)
			case ActionMarkOrphan:
				err = repo.Models().SetOrphaned(ctx, entry.Stored.ID, true)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// pushAll merges and pushes every active record for the provider through a
// bounded worker pool. With no registry configured every candidate counts as
// skipped.
func (s *Service) pushAll(ctx context.Context, prov *model.Provider) (pushed, skipped, errored int) {
	records, err := s.repo.Models().ListByProvider(ctx, prov.ID)
	if err != nil {
		s.logger.Error("listing records for push failed", zap.Error(err))
		return 0, 0, 0
	}

	var candidates []Effective
	for i := range records {
		if records[i].Orphaned {
			continue
		}
		candidates = append(candidates, Merge(prov, &records[i]))
	}

	if s.pusher == nil {
		return 0, len(candidates), 0
	}

	jobs := make(chan Effective)
	results := make(chan PushResult)

	var wg stdsync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for eff := range jobs {
				results <- s.pusher.PushIfChanged(ctx, prov, eff)
			}
		}()
	}
	go func() {
		for _, eff := range candidates {
			jobs <- eff
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for res := range results {
		switch res.Status {
		case StatusPushed:
			pushed++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			errored++
			s.logger.Warn("push failed",
				zap.String("model", res.DisplayName), zap.Error(res.Err))
		}
	}
	return pushed, skipped, errored
}

func newRecord(providerID string, c *normalize.Canonical, now time.Time) *model.Record {
	return &model.Record{
		ID:              uuid.NewString(),
		ProviderID:      providerID,
		ModelID:         c.ModelID,
		Capabilities:    c.Capabilities,
		ContextWindow:   c.ContextWindow,
		MaxInputTokens:  c.MaxInputTokens,
		MaxOutputTokens: c.MaxOutputTokens,
		EmbeddingDim:    c.EmbeddingDim,
		Params:          c.Params,
		Overrides:       model.JSONMap{},
		Raw:             c.Raw,
		FirstSeen:       now,
		LastSeen:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// applyDefaults carries the fetched provider-derived fields onto the stored
// record. Overrides and user_modified pass through untouched.
func applyDefaults(stored *model.Record, c *normalize.Canonical, now time.Time) *model.Record {
	rec := *stored
	rec.Capabilities = c.Capabilities
	rec.ContextWindow = c.ContextWindow
	rec.MaxInputTokens = c.MaxInputTokens
	rec.MaxOutputTokens = c.MaxOutputTokens
	rec.EmbeddingDim = c.EmbeddingDim
	rec.Params = c.Params
	rec.Raw = c.Raw
	rec.LastSeen = now
	rec.UpdatedAt = now
	rec.Orphaned = false
	return &rec
}
