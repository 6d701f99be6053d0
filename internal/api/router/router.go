// Package router sets up HTTP routes for the API server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxelabs/studymap/internal/api/features/dissociation"
	"github.com/voxelabs/studymap/internal/api/features/health"
	"github.com/voxelabs/studymap/internal/api/features/home"
	"github.com/voxelabs/studymap/internal/api/features/status"
	"github.com/voxelabs/studymap/internal/api/features/studies"
	"github.com/voxelabs/studymap/internal/dissociate"
	"github.com/voxelabs/studymap/internal/store"
)

// SetupRoutes configures all routes for the API server.
func SetupRoutes(
	router chi.Router,
	eng *dissociate.Engine,
	st store.Store,
	version string,
	logger *slog.Logger,
) error {
	router.Handle("/metrics", promhttp.Handler())

	if err := home.SetupRoutes(router); err != nil {
		return err
	}

	if err := health.SetupRoutes(router, st, version); err != nil {
		return err
	}

	if err := studies.SetupRoutes(router, eng, logger); err != nil {
		return err
	}

	if err := dissociation.SetupRoutes(router, eng, logger); err != nil {
		return err
	}

	if err := status.SetupRoutes(router, st, logger); err != nil {
		return err
	}

	return nil
}
