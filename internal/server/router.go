package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)

	api := router.Group("/v1")
	{
		api.GET("/data", h.listAssets)
		api.GET("/data/:asset_uid", h.getAsset)
		api.GET("/raw/:source", h.listRaw)
		api.GET("/raw/:source/:id", h.getRaw)
		api.GET("/mappings", h.listMappings)
		api.GET("/runs", h.listRuns)
		api.GET("/checkpoints", h.listCheckpoints)
		api.GET("/stats", h.stats)

		etl := api.Group("/etl")
		{
			etl.POST("/run/:source", h.runSource)
			etl.POST("/run-all", h.runAll)
			etl.POST("/bootstrap", h.bootstrap)
		}
	}

	return router
}

// Server wraps the HTTP listener with Start/Stop lifecycle.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer creates a Server listening on port.
func NewServer(port int, h *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With("component", "server"),
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()
}

// Stop drains in-flight requests, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
