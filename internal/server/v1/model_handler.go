package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nulzo/registry-sync/internal/store"
	"github.com/nulzo/registry-sync/internal/store/model"
	"github.com/nulzo/registry-sync/pkg/api"
)

type ModelHandler struct {
	repo store.Repository
}

func NewModelHandler(repo store.Repository) *ModelHandler {
	return &ModelHandler{repo: repo}
}

// ListByProvider returns every record for one provider, orphans included.
//
// GET /providers/:id/models
func (h *ModelHandler) ListByProvider(c *gin.Context) {
	if _, err := h.repo.Providers().Get(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(api.NotFoundError("provider not found"))
		return
	}

	records, err := h.repo.Models().ListByProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(api.InternalError("listing models failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": records})
}

// Get returns one record.
//
// GET /models/:id
func (h *ModelHandler) Get(c *gin.Context) {
	rec, err := h.repo.Models().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(api.NotFoundError("model not found"))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Create adds a hand-defined model under an alias provider. Fetch-backed
// providers get their records from reconciliation, never from this endpoint.
//
// POST /providers/:id/models
func (h *ModelHandler) Create(c *gin.Context) {
	prov, err := h.repo.Providers().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(api.NotFoundError("provider not found"))
		return
	}
	if prov.Kind != model.KindAlias {
		_ = c.Error(api.BadRequestError("models can only be created by hand under alias providers"))
		return
	}

	var req api.CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.BadRequestError(err.Error()))
		return
	}

	now := time.Now().UTC()
	rec := model.Record{
		ID:           uuid.NewString(),
		ProviderID:   prov.ID,
		ModelID:      req.ModelID,
		Capabilities: req.Capabilities,
		Params:       req.Params,
		Overrides:    model.JSONMap{},
		UserModified: true,
		FirstSeen:    now,
		LastSeen:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if rec.Params == nil {
		rec.Params = model.JSONMap{}
	}

	if err := h.repo.Models().Create(c.Request.Context(), &rec); err != nil {
		_ = c.Error(api.InternalError("creating model failed", err))
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// UpdateOverrides replaces a model's operator override set. Overrides live
// beside the provider-derived defaults and survive every resync.
//
// PUT /models/:id/overrides
func (h *ModelHandler) UpdateOverrides(c *gin.Context) {
	rec, err := h.repo.Models().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(api.NotFoundError("model not found"))
		return
	}

	var req api.OverridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.BadRequestError(err.Error()))
		return
	}

	userModified := len(req.Overrides) > 0
	if err := h.repo.Models().UpdateOverrides(c.Request.Context(), rec.ID, req.Overrides, userModified); err != nil {
		_ = c.Error(api.InternalError("updating overrides failed", err))
		return
	}

	rec, err = h.repo.Models().Get(c.Request.Context(), rec.ID)
	if err != nil {
		_ = c.Error(api.InternalError("reloading model failed", err))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete removes a record from the store. The downstream registry entry, if
// any, is left for the prune operation.
//
// DELETE /models/:id
func (h *ModelHandler) Delete(c *gin.Context) {
	if _, err := h.repo.Models().Get(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(api.NotFoundError("model not found"))
		return
	}
	if err := h.repo.Models().Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(api.InternalError("deleting model failed", err))
		return
	}
	c.Status(http.StatusNoContent)
}
