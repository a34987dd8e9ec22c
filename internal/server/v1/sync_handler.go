package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/registry-sync/internal/registry"
	"github.com/nulzo/registry-sync/internal/store"
	"github.com/nulzo/registry-sync/internal/store/model"
	syncer "github.com/nulzo/registry-sync/internal/sync"
	"github.com/nulzo/registry-sync/pkg/api"
)

// Syncer triggers reconciliation passes on demand.
type Syncer interface {
	SyncProvider(ctx context.Context, providerID string) (*model.Outcome, error)
	SyncAll(ctx context.Context) ([]*model.Outcome, error)
}

type SyncHandler struct {
	service  Syncer
	repo     store.Repository
	registry registry.Client
}

func NewSyncHandler(service Syncer, repo store.Repository, reg registry.Client) *SyncHandler {
	return &SyncHandler{service: service, repo: repo, registry: reg}
}

// SyncProvider runs one pass for a provider right now.
//
// POST /providers/:id/sync
func (h *SyncHandler) SyncProvider(c *gin.Context) {
	outcome, err := h.service.SyncProvider(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, toOutcomeResponse(outcome))
	case errors.Is(err, syncer.ErrSyncInFlight):
		_ = c.Error(api.ConflictError("a pass for this provider is already running"))
	default:
		var ferr *syncer.FetchError
		if errors.As(err, &ferr) {
			_ = c.Error(api.UpstreamError("provider fetch failed", err))
			return
		}
		_ = c.Error(api.InternalError("pass failed", err))
	}
}

// SyncAll runs passes for every sync-enabled provider.
//
// POST /sync
func (h *SyncHandler) SyncAll(c *gin.Context) {
	outcomes, err := h.service.SyncAll(c.Request.Context())
	if err != nil {
		_ = c.Error(api.InternalError("sync failed", err))
		return
	}

	out := make([]api.OutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, toOutcomeResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": out})
}

// GetOutcome returns the persisted result of a provider's last pass.
//
// GET /providers/:id/outcome
func (h *SyncHandler) GetOutcome(c *gin.Context) {
	if _, err := h.repo.Providers().Get(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(api.NotFoundError("provider not found"))
		return
	}

	outcome, err := h.repo.Outcomes().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(api.NotFoundError("no pass has run for this provider yet"))
		return
	}
	c.JSON(http.StatusOK, toOutcomeResponse(outcome))
}

// Prune removes a provider's orphaned models from the downstream registry
// and from the store. Reconciliation never deletes downstream entries on its
// own; this is the one explicit, operator-invoked cleanup.
//
// POST /providers/:id/prune
func (h *SyncHandler) Prune(c *gin.Context) {
	if h.registry == nil {
		_ = c.Error(api.BadRequestError("no downstream registry configured"))
		return
	}

	prov, err := h.repo.Providers().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(api.NotFoundError("provider not found"))
		return
	}

	records, err := h.repo.Models().ListByProvider(c.Request.Context(), prov.ID)
	if err != nil {
		_ = c.Error(api.InternalError("listing models failed", err))
		return
	}

	downstream, err := h.registry.ListModels(c.Request.Context())
	if err != nil {
		_ = c.Error(api.UpstreamError("listing registry models failed", err))
		return
	}
	byName := make(map[string]string, len(downstream))
	for _, m := range downstream {
		byName[m.DisplayName] = m.ID
	}

	var deleted []string
	for i := range records {
		if !records[i].Orphaned {
			continue
		}
		displayName := prov.DisplayName(records[i].ModelID)
		if id, ok := byName[displayName]; ok {
			if err := h.registry.DeleteModel(c.Request.Context(), id); err != nil {
				_ = c.Error(api.UpstreamError("deleting registry entry failed", err))
				return
			}
		}
		if err := h.repo.Models().Delete(c.Request.Context(), records[i].ID); err != nil {
			_ = c.Error(api.InternalError("deleting model failed", err))
			return
		}
		deleted = append(deleted, displayName)
	}

	c.JSON(http.StatusOK, api.PruneResponse{Deleted: deleted})
}

func toOutcomeResponse(o *model.Outcome) api.OutcomeResponse {
	resp := api.OutcomeResponse{
		ProviderID:  o.ProviderID,
		Created:     o.Created,
		Updated:     o.Updated,
		Unchanged:   o.Unchanged,
		Orphaned:    o.Orphaned,
		Reactivated: o.Reactivated,
		Pushed:      o.Pushed,
		Skipped:     o.Skipped,
		Errored:     o.Errored,
		OrphanIDs:   o.OrphanIDs,
		RanAt:       o.RanAt,
	}
	if o.Error.Valid {
		resp.Error = o.Error.String
	}
	return resp
}
