// Package server exposes the document pipeline over HTTP: upload a document,
// read back the node/link view of its graph, list available graphs, and
// clear the default namespace.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docugraph/docugraph"
	"github.com/docugraph/docugraph/pkg/config"
	"github.com/docugraph/docugraph/pkg/docstore"
	"github.com/docugraph/docugraph/pkg/server/handlers"
	"github.com/docugraph/docugraph/pkg/textract"
)

// Server is the HTTP front of the pipeline.
type Server struct {
	config     *config.Config
	pipeline   *docugraph.Pipeline
	store      *docstore.Store
	extractor  textract.TextExtractor
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New creates a server around an initialized pipeline.
func New(cfg *config.Config, pipeline *docugraph.Pipeline, store *docstore.Store, extractor textract.TextExtractor, logger *slog.Logger) *Server {
	return &Server{
		config:    cfg,
		pipeline:  pipeline,
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

// Setup configures the gin engine and registers all routes.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	documentHandler := handlers.NewDocumentHandler(s.pipeline, s.store, s.extractor, s.logger)
	graphHandler := handlers.NewGraphHandler(s.pipeline)
	healthHandler := handlers.NewHealthHandler()

	engine.GET("/health", healthHandler.HealthCheck)
	engine.POST("/upload", documentHandler.Upload)
	engine.POST("/reset", documentHandler.Reset)
	engine.GET("/graph", graphHandler.GetGraph)
	engine.GET("/graphs", graphHandler.ListGraphs)

	s.engine = engine
}

// Engine returns the configured gin engine. Setup must have been called.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the HTTP server until it is stopped or fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware allows browser frontends on any origin to call the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
