package health

import (
	"github.com/go-chi/chi/v5"

	"github.com/voxelabs/studymap/internal/store"
)

// SetupRoutes registers the health feature routes.
func SetupRoutes(router chi.Router, st store.Store, version string) error {
	handlers := NewHandlers(st, version)

	router.Get("/healthz", handlers.Healthz)

	return nil
}
