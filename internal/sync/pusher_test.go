package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nulzo/registry-sync/internal/cache"
	"github.com/nulzo/registry-sync/internal/registry"
	"github.com/nulzo/registry-sync/internal/store/model"
)

type upsertCall struct {
	DisplayName string
	Params      map[string]any
	Info        map[string]any
}

type fakeRegistry struct {
	mu      stdsync.Mutex
	upserts []upsertCall
	err     error
}

func (f *fakeRegistry) UpsertModel(_ context.Context, displayName string, params, info map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, upsertCall{DisplayName: displayName, Params: params, Info: info})
	return nil
}

func (f *fakeRegistry) ListModels(context.Context) ([]registry.ModelInfo, error) {
	return nil, nil
}

func (f *fakeRegistry) DeleteModel(context.Context, string) error { return nil }

func (f *fakeRegistry) calls() []upsertCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upsertCall{}, f.upserts...)
}

func newTestPusher(reg *fakeRegistry) *Pusher {
	return NewPusher(reg, cache.NewMemoryCache(), rate.NewLimiter(rate.Inf, 1),
		5*time.Second, zap.NewNop())
}

func testProvider() *model.Provider {
	return &model.Provider{
		ID:      "prov-1",
		Name:    "local",
		Kind:    model.KindOllama,
		BaseURL: "http://localhost:11434",
		Prefix:  "local/",
	}
}

func testEffective() Effective {
	return Effective{
		ProviderID:    "prov-1",
		ModelID:       "llama3:8b",
		DisplayName:   "local/llama3:8b",
		Capabilities:  []string{model.CapChat},
		ContextWindow: intp(8192),
		Params:        map[string]any{"family": "llama"},
	}
}

func TestPushIfChanged_FirstPushThenSkip(t *testing.T) {
	reg := &fakeRegistry{}
	p := newTestPusher(reg)
	prov := testProvider()

	first := p.PushIfChanged(context.Background(), prov, testEffective())
	assert.Equal(t, StatusPushed, first.Status)

	second := p.PushIfChanged(context.Background(), prov, testEffective())
	assert.Equal(t, StatusSkipped, second.Status)

	calls := reg.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "local/llama3:8b", calls[0].DisplayName)
	assert.Equal(t, "ollama/llama3:8b", calls[0].Params["model"])
	assert.Equal(t, "http://localhost:11434", calls[0].Params["api_base"])
	assert.EqualValues(t, 8192, calls[0].Info["context_window"])
}

func TestPushIfChanged_MaterialChangeRepushes(t *testing.T) {
	reg := &fakeRegistry{}
	p := newTestPusher(reg)
	prov := testProvider()

	p.PushIfChanged(context.Background(), prov, testEffective())

	changed := testEffective()
	changed.ContextWindow = intp(16384)
	res := p.PushIfChanged(context.Background(), prov, changed)

	assert.Equal(t, StatusPushed, res.Status)
	assert.Len(t, reg.calls(), 2)
}

func TestPushIfChanged_TypeFoldedValueSkips(t *testing.T) {
	reg := &fakeRegistry{}
	p := newTestPusher(reg)
	prov := testProvider()

	eff := testEffective()
	eff.Params["input_cost_per_token"] = "0.0"
	p.PushIfChanged(context.Background(), prov, eff)

	// same value after a JSON round trip's type change
	eff2 := testEffective()
	eff2.Params["input_cost_per_token"] = 0.0
	res := p.PushIfChanged(context.Background(), prov, eff2)

	assert.Equal(t, StatusSkipped, res.Status)
	assert.Len(t, reg.calls(), 1)
}

func TestPushIfChanged_FailureLeavesSnapshot(t *testing.T) {
	reg := &fakeRegistry{err: errors.New("registry down")}
	p := newTestPusher(reg)
	prov := testProvider()

	res := p.PushIfChanged(context.Background(), prov, testEffective())
	require.Equal(t, StatusFailed, res.Status)

	var perr *PushError
	require.ErrorAs(t, res.Err, &perr)
	assert.Equal(t, "local/llama3:8b", perr.DisplayName)

	// no snapshot was written, so recovery retries the push
	reg.mu.Lock()
	reg.err = nil
	reg.mu.Unlock()
	res = p.PushIfChanged(context.Background(), prov, testEffective())
	assert.Equal(t, StatusPushed, res.Status)
}

func TestPushIfChanged_OpenAICompatMode(t *testing.T) {
	reg := &fakeRegistry{}
	p := newTestPusher(reg)
	prov := testProvider()
	prov.Mode = "openai"

	res := p.PushIfChanged(context.Background(), prov, testEffective())
	require.Equal(t, StatusPushed, res.Status)
	assert.Equal(t, "openai/llama3:8b", reg.calls()[0].Params["model"])
}

func TestPushIfChanged_APIKeyIncluded(t *testing.T) {
	reg := &fakeRegistry{}
	p := newTestPusher(reg)
	prov := &model.Provider{
		ID:      "prov-2",
		Kind:    model.KindOpenAI,
		BaseURL: "https://api.example.com/v1",
		APIKey:  "sk-upstream",
	}

	eff := testEffective()
	eff.ProviderID = "prov-2"
	res := p.PushIfChanged(context.Background(), prov, eff)

	require.Equal(t, StatusPushed, res.Status)
	call := reg.calls()[0]
	assert.Equal(t, "openai/llama3:8b", call.Params["model"])
	assert.Equal(t, "sk-upstream", call.Params["api_key"])
}
