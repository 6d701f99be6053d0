// Package home serves the root banner and the static image the service
// has always shipped.
package home

import (
	_ "embed"
	"net/http"
)

//go:embed resources/amygdala.gif
var amygdalaGIF []byte

// Handlers provides the root and static asset handlers.
type Handlers struct{}

// NewHandlers creates a new Handlers instance.
func NewHandlers() *Handlers {
	return &Handlers{}
}

// Root confirms the service is up with the historical banner body.
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<p>Server working!</p>"))
}

// Image serves the embedded amygdala illustration.
func (h *Handlers) Image(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/gif")
	_, _ = w.Write(amygdalaGIF)
}
