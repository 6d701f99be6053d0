package status

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/voxelabs/studymap/internal/store"
)

// SetupRoutes registers the corpus status route.
func SetupRoutes(router chi.Router, st store.Store, logger *slog.Logger) error {
	handlers := NewHandlers(st, logger)

	router.Get("/corpus/status", handlers.CorpusStatus)

	return nil
}
