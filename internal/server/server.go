package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/juparave/gapaudit/internal/app"
	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/logging"
	"github.com/juparave/gapaudit/internal/session"
	"github.com/sirupsen/logrus"
)

// Auditor is the pipeline the HTTP surface drives
type Auditor interface {
	Analyze(ctx context.Context, data []byte, source string) (*app.Analysis, error)
	Current() app.Analysis
	Session() *session.Session
	Report() (*domain.Report, error)
	Busy() bool
}

// Server exposes one review session over HTTP
type Server struct {
	config  config.ServerConfig
	auditor Auditor
	logger  *logrus.Logger
	engine  *gin.Engine
}

// New creates a Server with all routes registered
func New(cfg config.ServerConfig, auditor Auditor, logger *logrus.Logger) *Server {
	s := &Server{
		config:  cfg,
		auditor: auditor,
		logger:  logging.OrDiscard(logger),
		engine:  gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestLogger(s.logger), cors.New(corsConfig(cfg.AllowedOrigins)))
	s.engine.MaxMultipartMemory = cfg.MaxUploadSize

	s.engine.GET("/healthz", s.health)

	api := s.engine.Group("/api")
	api.POST("/documents", s.uploadDocument)
	api.GET("/session", s.getSession)
	api.PATCH("/entries/:index", s.updateEntry)
	api.GET("/report.csv", s.downloadReport("csv"))
	api.GET("/report.xlsx", s.downloadReport("xlsx"))

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.config.Addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.config.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("X-Request-Id")
	cfg.AddExposeHeaders("Content-Disposition", "X-Request-Id")
	return cfg
}
