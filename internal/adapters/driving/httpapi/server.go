package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driven"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
	"github.com/All-Pilot-Modules/ai-pilot/internal/logger"
)

// ErrMissingPorts is returned when a required service is not provided.
var ErrMissingPorts = errors.New("httpapi: ingest, document, status and retrieval services are required")

// Ports aggregates the services behind the HTTP API.
type Ports struct {
	Ingest     driving.IngestService
	Document   driving.DocumentService
	Status     driving.StatusService
	Retrieval  driving.RetrievalService
	Embeddings driving.EmbeddingGenerator // nil when no provider is configured

	// Dispatcher enables ?async=true. Nil means everything runs inline.
	Dispatcher driven.TaskDispatcher
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil || p.Document == nil || p.Status == nil || p.Retrieval == nil {
		return ErrMissingPorts
	}
	return nil
}

// Server serves the HTTP API.
type Server struct {
	engine *gin.Engine
	log    *logger.Logger
}

// NewServer builds the router for ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	log := logger.With("component", "http")
	h := &handlers{ports: ports, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(log))
	r.MaxMultipartMemory = maxUploadBytes

	r.GET("/healthz", h.health)

	docs := r.Group("/documents")
	docs.POST("", h.uploadDocument)
	docs.GET("", h.listDocuments)
	docs.GET("/:id", h.getDocument)
	docs.DELETE("/:id", h.deleteDocument)
	docs.GET("/:id/status", h.getStatus)
	docs.GET("/:id/chunks", h.getChunks)
	docs.POST("/:id/process", h.processDocument)
	docs.POST("/:id/reprocess", h.reprocessDocument)
	docs.POST("/:id/embed", h.embedDocument)

	r.POST("/embeddings/retry", h.retryEmbeddings)
	r.POST("/context", h.retrieveContext)

	return &Server{engine: r, log: log}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("shutdown", "error", err)
		}
	}()

	s.log.Info("listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
