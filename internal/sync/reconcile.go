package sync

import (
	"sort"

	"github.com/nulzo/registry-sync/internal/store/model"
	"github.com/nulzo/registry-sync/internal/sync/normalize"
)

// Action classifies one model within a reconciliation plan.
type Action string

const (
	ActionCreate         Action = "create"
	ActionUpdateDefaults Action = "update_defaults"
	ActionUnchanged      Action = "unchanged"
	ActionMarkOrphan     Action = "mark_orphan"
	ActionReactivate     Action = "reactivate"
)

// PlanEntry pairs an action with the inputs needed to apply it. Fetched is
// nil for MarkOrphan; Stored is nil for Create.
type PlanEntry struct {
	Action  Action
	Fetched *normalize.Canonical
	Stored  *model.Record
}

// Plan is the set of per-record actions for one provider pass, keyed by the
// provider-scoped model identifier.
type Plan struct {
	ProviderID string
	Entries    map[string]PlanEntry
}

// Count returns the number of entries with the given action.
func (p Plan) Count(action Action) int {
	n := 0
	for _, e := range p.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// OrphanIDs returns the model identifiers marked orphaned, sorted.
func (p Plan) OrphanIDs() []string {
	var ids []string
	for id, e := range p.Entries {
		if e.Action == ActionMarkOrphan {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Reconcile diffs a fetched batch against stored records. Classification is
// identifier-keyed: the same plan comes out regardless of input order. The
// override set is never consulted here; only provider-derived fields decide
// between UpdateDefaults and Unchanged.
func Reconcile(providerID string, fetched []*normalize.Canonical, stored []model.Record) Plan {
	plan := Plan{ProviderID: providerID, Entries: make(map[string]PlanEntry)}

	byID := make(map[string]*model.Record, len(stored))
	for i := range stored {
		byID[stored[i].ModelID] = &stored[i]
	}

	seen := make(map[string]bool, len(fetched))
	for _, rec := range fetched {
		seen[rec.ModelID] = true

		existing, ok := byID[rec.ModelID]
		if !ok {
			plan.Entries[rec.ModelID] = PlanEntry{Action: ActionCreate, Fetched: rec}
			continue
		}

		switch {
		case existing.Orphaned:
			plan.Entries[rec.ModelID] = PlanEntry{Action: ActionReactivate, Fetched: rec, Stored: existing}
		case defaultsEqual(rec, existing):
			plan.Entries[rec.ModelID] = PlanEntry{Action: ActionUnchanged, Fetched: rec, Stored: existing}
		default:
			plan.Entries[rec.ModelID] = PlanEntry{Action: ActionUpdateDefaults, Fetched: rec, Stored: existing}
		}
	}

	for id, existing := range byID {
		if !seen[id] && !existing.Orphaned {
			plan.Entries[id] = PlanEntry{Action: ActionMarkOrphan, Stored: existing}
		}
	}

	return plan
}

// defaultsEqual compares provider-derived fields only.
func defaultsEqual(fetched *normalize.Canonical, stored *model.Record) bool {
	if !capsEqual(fetched.Capabilities, stored.Capabilities) {
		return false
	}
	if !int64PtrEqual(fetched.ContextWindow, stored.ContextWindow) ||
		!int64PtrEqual(fetched.MaxInputTokens, stored.MaxInputTokens) ||
		!int64PtrEqual(fetched.MaxOutputTokens, stored.MaxOutputTokens) ||
		!int64PtrEqual(fetched.EmbeddingDim, stored.EmbeddingDim) {
		return false
	}
	return equalFolded(fetched.Params, map[string]any(stored.Params))
}

func capsEqual(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string{}, a...)
	bs := append([]string{}, b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
