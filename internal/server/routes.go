package server

import (
	"github.com/nulzo/registry-sync/internal/server/middleware"
	v1 "github.com/nulzo/registry-sync/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)

	api := s.router.Group("/api/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	api.Use(middleware.NewRateLimiter(50, 100, s.logger).Middleware())
	{
		providerHandler := v1.NewProviderHandler(s.repo, s.config)
		api.GET("/providers", providerHandler.List)
		api.POST("/providers", providerHandler.Create)
		api.GET("/providers/:id", providerHandler.Get)
		api.PUT("/providers/:id", providerHandler.Update)
		api.DELETE("/providers/:id", providerHandler.Delete)

		modelHandler := v1.NewModelHandler(s.repo)
		api.GET("/providers/:id/models", modelHandler.ListByProvider)
		api.POST("/providers/:id/models", modelHandler.Create)
		api.GET("/models/:id", modelHandler.Get)
		api.PUT("/models/:id/overrides", modelHandler.UpdateOverrides)
		api.DELETE("/models/:id", modelHandler.Delete)

		syncHandler := v1.NewSyncHandler(s.syncer, s.repo, s.registry)
		api.POST("/sync", syncHandler.SyncAll)
		api.POST("/providers/:id/sync", syncHandler.SyncProvider)
		api.GET("/providers/:id/outcome", syncHandler.GetOutcome)
		api.POST("/providers/:id/prune", syncHandler.Prune)

		presetHandler := v1.NewPresetHandler()
		api.GET("/presets", presetHandler.List)
	}
}
