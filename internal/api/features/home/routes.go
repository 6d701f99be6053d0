package home

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the home feature routes.
func SetupRoutes(router chi.Router) error {
	handlers := NewHandlers()

	router.Get("/", handlers.Root)
	router.Get("/img", handlers.Image)

	return nil
}
