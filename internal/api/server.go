// Package api provides the HTTP query service for the study corpus.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/voxelabs/studymap/internal/api/router"
	"github.com/voxelabs/studymap/internal/corpus"
	"github.com/voxelabs/studymap/internal/dissociate"
	"github.com/voxelabs/studymap/internal/store"
)

// Server is the API server.
type Server struct {
	engine  *dissociate.Engine
	store   store.Store
	watcher *corpus.Watcher
	host    string
	port    int
	version string
	logger  *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Engine *dissociate.Engine
	Store  store.Store

	// Watcher, when set, reloads the corpus while the server runs.
	Watcher *corpus.Watcher

	Host    string
	Port    int
	Version string
	Logger  *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		engine:  cfg.Engine,
		store:   cfg.Store,
		watcher: cfg.Watcher,
		host:    cfg.Host,
		port:    cfg.Port,
		version: cfg.Version,
		logger:  logger,
	}
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	s.logger.Info("starting API server", "addr", addr)

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.engine, s.store, s.version, s.logger); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Reload the corpus when its source files change
	if s.watcher != nil {
		eg.Go(func() error {
			return s.watcher.Watch(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// requestLogger logs each completed request through the service logger.
// Probe and scrape paths are skipped to keep the log signal useful.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	skip := map[string]bool{
		"/healthz": true,
		"/metrics": true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
