package studies

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/voxelabs/studymap/internal/dissociate"
)

// SetupRoutes registers the membership query routes.
func SetupRoutes(router chi.Router, eng *dissociate.Engine, logger *slog.Logger) error {
	handlers := NewHandlers(eng, logger)

	router.Get("/terms/{term}/studies", handlers.TermStudies)
	router.Get("/locations/{coords}/studies", handlers.LocationStudies)

	return nil
}
