// Package status exposes the corpus diagnostics snapshot, the query
// service's answer to "is there data behind this thing".
package status

import (
	"log/slog"
	"net/http"

	"github.com/voxelabs/studymap/internal/api/features/common"
	"github.com/voxelabs/studymap/internal/store"
)

// Handlers provides the corpus status handler.
type Handlers struct {
	store  store.Store
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st store.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{store: st, logger: logger}
}

// CorpusStatus reports dialect, version, row counts and 3-row samples.
// A store failure degrades to ok:false with the error, not a 5xx; this
// endpoint exists precisely to diagnose a broken backend.
func (h *Handlers) CorpusStatus(w http.ResponseWriter, r *http.Request) {
	diag, err := h.store.Diagnostics(r.Context())
	if err != nil {
		h.logger.Error("corpus diagnostics failed", slog.Any("error", err))
		common.WriteJSON(w, http.StatusOK, Failed{OK: false, Error: err.Error()})
		return
	}

	common.WriteJSON(w, http.StatusOK, fromDiagnostics(diag))
}
