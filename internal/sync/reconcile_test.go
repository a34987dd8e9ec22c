package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/registry-sync/internal/store/model"
	"github.com/nulzo/registry-sync/internal/sync/normalize"
)

func intp(v int64) *int64 { return &v }

func canonical(id string, ctxWindow *int64) *normalize.Canonical {
	return &normalize.Canonical{
		ModelID:       id,
		Capabilities:  []string{model.CapChat},
		ContextWindow: ctxWindow,
		Params:        map[string]any{},
	}
}

func storedRecord(id string, ctxWindow *int64) model.Record {
	return model.Record{
		ID:            "rec-" + id,
		ModelID:       id,
		Capabilities:  model.StringSlice{model.CapChat},
		ContextWindow: ctxWindow,
		Params:        model.JSONMap{},
		Overrides:     model.JSONMap{},
	}
}

func TestReconcile_Classification(t *testing.T) {
	orphaned := storedRecord("returning", intp(4096))
	orphaned.Orphaned = true

	fetched := []*normalize.Canonical{
		canonical("brand-new", intp(8192)),
		canonical("changed", intp(16384)),
		canonical("same", intp(4096)),
		canonical("returning", intp(4096)),
	}
	stored := []model.Record{
		storedRecord("changed", intp(8192)),
		storedRecord("same", intp(4096)),
		storedRecord("vanished", intp(2048)),
		orphaned,
	}

	plan := Reconcile("prov-1", fetched, stored)

	require.Len(t, plan.Entries, 5)
	assert.Equal(t, ActionCreate, plan.Entries["brand-new"].Action)
	assert.Equal(t, ActionUpdateDefaults, plan.Entries["changed"].Action)
	assert.Equal(t, ActionUnchanged, plan.Entries["same"].Action)
	assert.Equal(t, ActionReactivate, plan.Entries["returning"].Action)
	assert.Equal(t, ActionMarkOrphan, plan.Entries["vanished"].Action)
	assert.Equal(t, []string{"vanished"}, plan.OrphanIDs())
}

func TestReconcile_OrderIndependent(t *testing.T) {
	fetched := []*normalize.Canonical{
		canonical("a", intp(1024)),
		canonical("b", intp(2048)),
		canonical("c", nil),
	}
	stored := []model.Record{
		storedRecord("b", intp(2048)),
		storedRecord("c", intp(512)),
	}

	forward := Reconcile("prov-1", fetched, stored)

	reversedFetched := []*normalize.Canonical{fetched[2], fetched[1], fetched[0]}
	reversedStored := []model.Record{stored[1], stored[0]}
	backward := Reconcile("prov-1", reversedFetched, reversedStored)

	require.Len(t, backward.Entries, len(forward.Entries))
	for id, entry := range forward.Entries {
		assert.Equal(t, entry.Action, backward.Entries[id].Action, id)
	}
}

func TestReconcile_AlreadyOrphanedStaysPut(t *testing.T) {
	gone := storedRecord("gone", intp(4096))
	gone.Orphaned = true

	plan := Reconcile("prov-1", nil, []model.Record{gone})

	// not re-orphaned, not reactivated, just absent from the plan
	assert.Empty(t, plan.Entries)
}

func TestReconcile_OverridesNeverDecide(t *testing.T) {
	rec := storedRecord("tuned", intp(4096))
	rec.Overrides = model.JSONMap{"context_window": float64(999)}
	rec.UserModified = true

	plan := Reconcile("prov-1", []*normalize.Canonical{canonical("tuned", intp(4096))}, []model.Record{rec})

	assert.Equal(t, ActionUnchanged, plan.Entries["tuned"].Action)
}

func TestReconcile_FoldedParamsUnchanged(t *testing.T) {
	fetched := canonical("priced", intp(4096))
	fetched.Params = map[string]any{"input_cost_per_token": "0.0"}

	rec := storedRecord("priced", intp(4096))
	rec.Params = model.JSONMap{"input_cost_per_token": 0.0}

	plan := Reconcile("prov-1", []*normalize.Canonical{fetched}, []model.Record{rec})

	assert.Equal(t, ActionUnchanged, plan.Entries["priced"].Action)
}

func TestReconcile_CapabilityOrderIrrelevant(t *testing.T) {
	fetched := canonical("multi", intp(4096))
	fetched.Capabilities = []string{model.CapVision, model.CapChat}

	rec := storedRecord("multi", intp(4096))
	rec.Capabilities = model.StringSlice{model.CapChat, model.CapVision}

	plan := Reconcile("prov-1", []*normalize.Canonical{fetched}, []model.Record{rec})

	assert.Equal(t, ActionUnchanged, plan.Entries["multi"].Action)
}

func TestReconcile_NilToValueIsUpdate(t *testing.T) {
	plan := Reconcile("prov-1",
		[]*normalize.Canonical{canonical("grew", intp(8192))},
		[]model.Record{storedRecord("grew", nil)})

	assert.Equal(t, ActionUpdateDefaults, plan.Entries["grew"].Action)
}
