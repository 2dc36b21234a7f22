// Package server exposes the generation pipeline as a small web UI and JSON API.
package server

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nikogura/cvforge/pkg/pipeline"
	"github.com/pkg/errors"
)

const (
	defaultUploadLimit = 50 << 20
	shutdownTimeout    = 10 * time.Second
)

//nolint:gochecknoglobals // embedded assets
//go:embed static/index.html
var static embed.FS

// Options configure a Server.
type Options struct {
	// UploadLimit caps the size of one multipart request body.
	UploadLimit int64
}

// Server serves the web UI and API for one pipeline.
type Server struct {
	svc    *pipeline.Service
	opts   Options
	logger *slog.Logger
	router *gin.Engine
}

// New builds a Server with every route registered. A nil logger uses slog.Default().
func New(svc *pipeline.Service, opts Options, logger *slog.Logger) (s *Server) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UploadLimit <= 0 {
		opts.UploadLimit = defaultUploadLimit
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestID(), requestLogger(logger), recovery(logger))

	s = &Server{
		svc:    svc,
		opts:   opts,
		logger: logger,
		router: r,
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/", s.index)

	api := r.Group("/api")
	api.GET("/profiles", s.listProfiles)
	api.POST("/profiles/:profile/versions", s.generate)
	api.DELETE("/profiles/:profile/versions", s.cleanup)
	api.GET("/profiles/:profile/versions/:version/files/:file", s.download)
	api.POST("/versions/update", s.update)

	return s
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() (h http.Handler) {
	h = s.router
	return h
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) (err error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		err = errors.Wrapf(err, "server on %s stopped", addr)
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		err = errors.Wrap(err, "graceful shutdown failed")
		return err
	}

	return err
}

func (s *Server) index(c *gin.Context) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "index page missing")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
