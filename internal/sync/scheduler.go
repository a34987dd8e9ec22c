package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/registry-sync/internal/store"
	"github.com/nulzo/registry-sync/internal/store/model"
)

// refreshEvery is how often the scheduler re-reads provider configuration to
// pick up added, removed, or reconfigured providers without a restart.
const refreshEvery = 30 * time.Second

// Scheduler keeps one timer goroutine per sync-enabled provider so that a
// slow or failing provider never delays the others. Runner lifecycles follow
// the stored configuration: changing a provider's interval replaces its
// runner on the next refresh.
type Scheduler struct {
	service         *Service
	repo            store.Repository
	defaultInterval time.Duration
	logger          *zap.Logger

	mu      stdsync.Mutex
	runners map[string]*runner
	cancel  context.CancelFunc
	done    chan struct{}
}

type runner struct {
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(service *Service, repo store.Repository, defaultInterval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		service:         service,
		repo:            repo,
		defaultInterval: defaultInterval,
		logger:          logger,
		runners:         make(map[string]*runner),
	}
}

// Start launches the refresh loop. It returns immediately; call Stop to shut
// every runner down.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.refresh(ctx)

		ticker := time.NewTicker(refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.stopAll()
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()
}

// Stop cancels the refresh loop and waits for every runner to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) refresh(ctx context.Context) {
	providers, err := s.repo.Providers().ListSyncEnabled(ctx)
	if err != nil {
		s.logger.Error("scheduler refresh failed", zap.Error(err))
		return
	}

	desired := make(map[string]time.Duration, len(providers))
	for i := range providers {
		if interval := s.intervalFor(&providers[i]); interval > 0 {
			desired[providers[i].ID] = interval
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.runners {
		if interval, ok := desired[id]; !ok || interval != r.interval {
			r.cancel()
			<-r.done
			delete(s.runners, id)
		}
	}

	for id, interval := range desired {
		if _, ok := s.runners[id]; ok {
			continue
		}
		runCtx, cancel := context.WithCancel(ctx)
		r := &runner{interval: interval, cancel: cancel, done: make(chan struct{})}
		s.runners[id] = r
		go s.run(runCtx, id, r)
	}
}

// intervalFor resolves a provider's effective interval: its own when set,
// the global default otherwise. Zero means the provider is never scheduled.
func (s *Scheduler) intervalFor(p *model.Provider) time.Duration {
	if p.SyncIntervalSeconds > 0 {
		return time.Duration(p.SyncIntervalSeconds) * time.Second
	}
	return s.defaultInterval
}

func (s *Scheduler) run(ctx context.Context, providerID string, r *runner) {
	defer close(r.done)

	s.pass(ctx, providerID)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pass(ctx, providerID)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context, providerID string) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("pass panicked",
				zap.String("provider_id", providerID), zap.Any("panic", rec))
		}
	}()

	_, err := s.service.SyncProvider(ctx, providerID)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInFlight):
		s.logger.Debug("pass skipped, already in flight", zap.String("provider_id", providerID))
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Warn("scheduled pass failed",
			zap.String("provider_id", providerID), zap.Error(err))
	}
}

func (s *Scheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.runners {
		r.cancel()
		<-r.done
		delete(s.runners, id)
	}
}
