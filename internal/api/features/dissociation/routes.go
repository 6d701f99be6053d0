package dissociation

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/voxelabs/studymap/internal/dissociate"
)

// SetupRoutes registers the dissociation query routes.
func SetupRoutes(router chi.Router, eng *dissociate.Engine, logger *slog.Logger) error {
	handlers := NewHandlers(eng, logger)

	router.Route("/dissociate", func(r chi.Router) {
		r.Get("/terms/{term_a}/{term_b}", handlers.Terms)
		r.Get("/locations/{coords_a}/{coords_b}", handlers.Locations)
	})

	return nil
}
