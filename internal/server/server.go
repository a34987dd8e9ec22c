package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/nulzo/registry-sync/internal/config"
	"github.com/nulzo/registry-sync/internal/registry"
	"github.com/nulzo/registry-sync/internal/server/v1"
	"github.com/nulzo/registry-sync/internal/store"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   *zap.Logger
	repo     store.Repository
	syncer   v1.Syncer
	registry registry.Client
}

func New(cfg *config.Config, logger *zap.Logger, repo store.Repository, syncer v1.Syncer, reg registry.Client) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	if cfg.Tracing.Enabled {
		engine.Use(otelgin.Middleware("registry-sync"))
	}

	s := &Server{
		router:   engine,
		config:   cfg,
		logger:   logger,
		repo:     repo,
		syncer:   syncer,
		registry: reg,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
