package sync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nulzo/registry-sync/internal/store/model"
)

func TestScheduler_IntervalResolution(t *testing.T) {
	s := NewScheduler(nil, nil, 5*time.Minute, zap.NewNop())

	assert.Equal(t, 5*time.Minute, s.intervalFor(&model.Provider{}))
	assert.Equal(t, 90*time.Second, s.intervalFor(&model.Provider{SyncIntervalSeconds: 90}))

	none := NewScheduler(nil, nil, 0, zap.NewNop())
	assert.Equal(t, time.Duration(0), none.intervalFor(&model.Provider{}))
}

func TestScheduler_RunsImmediatePass(t *testing.T) {
	repo := newMemRepo()
	prov := seedProvider(repo, model.KindOllama, "local/")
	client := &fakeClient{payloads: []json.RawMessage{ollamaPayload("chat-small", 8192)}}
	factory := &fakeFactory{clients: map[string]*fakeClient{prov.ID: client}}
	svc := newTestService(repo, factory, nil)

	sched := NewScheduler(svc, repo, time.Hour, zap.NewNop())
	sched.Start(context.Background())
	defer sched.Stop()

	require.Eventually(t, func() bool {
		_, err := repo.Outcomes().Get(context.Background(), prov.ID)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	outcome, err := repo.Outcomes().Get(context.Background(), prov.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Created)
}

func TestScheduler_RefreshReplacesChangedRunner(t *testing.T) {
	repo := newMemRepo()
	prov := seedProvider(repo, model.KindOllama, "local/")
	client := &fakeClient{payloads: []json.RawMessage{ollamaPayload("chat-small", 8192)}}
	factory := &fakeFactory{clients: map[string]*fakeClient{prov.ID: client}}
	svc := newTestService(repo, factory, nil)

	sched := NewScheduler(svc, repo, time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.refresh(ctx)
	sched.mu.Lock()
	require.Contains(t, sched.runners, prov.ID)
	assert.Equal(t, time.Hour, sched.runners[prov.ID].interval)
	sched.mu.Unlock()

	prov.SyncIntervalSeconds = 120
	require.NoError(t, repo.Providers().Update(ctx, prov))

	sched.refresh(ctx)
	sched.mu.Lock()
	assert.Equal(t, 2*time.Minute, sched.runners[prov.ID].interval)
	sched.mu.Unlock()

	sched.stopAll()
}

func TestScheduler_DisabledProviderGetsNoRunner(t *testing.T) {
	repo := newMemRepo()
	prov := seedProvider(repo, model.KindOllama, "local/")
	prov.SyncEnabled = false
	require.NoError(t, repo.Providers().Update(context.Background(), prov))

	svc := newTestService(repo, &fakeFactory{clients: map[string]*fakeClient{}}, nil)
	sched := NewScheduler(svc, repo, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.refresh(ctx)

	sched.mu.Lock()
	assert.Empty(t, sched.runners)
	sched.mu.Unlock()
}
