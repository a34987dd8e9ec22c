package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nulzo/registry-sync/internal/config"
	"github.com/nulzo/registry-sync/internal/presets"
	"github.com/nulzo/registry-sync/internal/store"
	"github.com/nulzo/registry-sync/internal/store/model"
	"github.com/nulzo/registry-sync/pkg/api"
)

type ProviderHandler struct {
	repo store.Repository
	cfg  *config.Config
}

func NewProviderHandler(repo store.Repository, cfg *config.Config) *ProviderHandler {
	return &ProviderHandler{repo: repo, cfg: cfg}
}

// List returns all configured providers.
//
// GET /providers
func (h *ProviderHandler) List(c *gin.Context) {
	providers, err := h.repo.Providers().List(c.Request.Context())
	if err != nil {
		_ = c.Error(api.InternalError("listing providers failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

// Get returns one provider.
//
// GET /providers/:id
func (h *ProviderHandler) Get(c *gin.Context) {
	prov, err := h.repo.Providers().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(api.NotFoundError("provider not found"))
		return
	}
	c.JSON(http.StatusOK, prov)
}

// Create registers a new provider, optionally seeded from a preset.
//
// POST /providers
func (h *ProviderHandler) Create(c *gin.Context) {
	var req api.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.BadRequestError(err.Error()))
		return
	}

	if err := h.cfg.ValidateInterval(req.SyncIntervalSeconds); err != nil {
		_ = c.Error(api.BadRequestError(err.Error()))
		return
	}

	prov := model.Provider{
		Name:                req.Name,
		Kind:                req.Kind,
		BaseURL:             req.BaseURL,
		APIKey:              req.APIKey,
		Prefix:              req.Prefix,
		Mode:                req.Mode,
		ModelFilter:         req.ModelFilter,
		SyncEnabled:         true,
		SyncIntervalSeconds: req.SyncIntervalSeconds,
	}
	if req.SyncEnabled != nil {
		prov.SyncEnabled = *req.SyncEnabled
	}

	if req.Preset != "" {
		preset, ok := presets.BySlug(req.Preset)
		if !ok {
			_ = c.Error(api.BadRequestError("unknown preset: " + req.Preset))
			return
		}
		if prov.BaseURL == "" {
			prov.BaseURL = preset.BaseURL
		}
		if prov.Prefix == "" {
			prov.Prefix = preset.Prefix
		}
	}

	now := time.Now().UTC()
	prov.ID = uuid.NewString()
	prov.CreatedAt = now
	prov.UpdatedAt = now

	if err := h.repo.Providers().Create(c.Request.Context(), &prov); err != nil {
		_ = c.Error(api.InternalError("creating provider failed", err))
		return
	}
	c.JSON(http.StatusCreated, prov)
}

// Update changes provider configuration in place.
//
// PUT /providers/:id
func (h *ProviderHandler) Update(c *gin.Context) {
	prov, err := h.repo.Providers().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(api.NotFoundError("provider not found"))
		return
	}

	var req api.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.BadRequestError(err.Error()))
		return
	}

	if req.SyncIntervalSeconds != nil {
		if err := h.cfg.ValidateInterval(*req.SyncIntervalSeconds); err != nil {
			_ = c.Error(api.BadRequestError(err.Error()))
			return
		}
		prov.SyncIntervalSeconds = *req.SyncIntervalSeconds
	}
	if req.Name != nil {
		prov.Name = *req.Name
	}
	if req.BaseURL != nil {
		prov.BaseURL = *req.BaseURL
	}
	if req.APIKey != nil {
		prov.APIKey = *req.APIKey
	}
	if req.Prefix != nil {
		prov.Prefix = *req.Prefix
	}
	if req.Mode != nil {
		prov.Mode = *req.Mode
	}
	if req.ModelFilter != nil {
		prov.ModelFilter = *req.ModelFilter
	}
	if req.SyncEnabled != nil {
		prov.SyncEnabled = *req.SyncEnabled
	}
	prov.UpdatedAt = time.Now().UTC()

	if err := h.repo.Providers().Update(c.Request.Context(), prov); err != nil {
		_ = c.Error(api.InternalError("updating provider failed", err))
		return
	}
	c.JSON(http.StatusOK, prov)
}

// Delete removes a provider and, by cascade, its records.
//
// DELETE /providers/:id
func (h *ProviderHandler) Delete(c *gin.Context) {
	if _, err := h.repo.Providers().Get(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(api.NotFoundError("provider not found"))
		return
	}
	if err := h.repo.Providers().Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(api.InternalError("deleting provider failed", err))
		return
	}
	c.Status(http.StatusNoContent)
}
