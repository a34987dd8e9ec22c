package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/registry-sync/internal/presets"
)

type PresetHandler struct{}

func NewPresetHandler() *PresetHandler {
	return &PresetHandler{}
}

// List returns the built-in provider templates.
//
// GET /presets
func (h *PresetHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": presets.All()})
}
