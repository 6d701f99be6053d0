// Package dissociation serves the two-criterion contrast queries: the
// studies matching one term or location but not the other, in both
// directions.
package dissociation

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxelabs/studymap/internal/api/features/common"
	"github.com/voxelabs/studymap/internal/dissociate"
)

// Handlers provides the dissociation query handlers.
type Handlers struct {
	engine *dissociate.Engine
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *dissociate.Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{engine: eng, logger: logger}
}

// Terms contrasts two terms and returns both one-sided differences.
func (h *Handlers) Terms(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := h.engine.DissociateTerms(r.Context(),
		chi.URLParam(r, "term_a"), chi.URLParam(r, "term_b"))
	common.ObserveQuery("dissociate_terms", start, err)
	if err != nil {
		common.WriteQueryError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, res.Envelope())
}

// Locations contrasts two coordinates under a shared tolerance radius
// and returns both one-sided differences.
func (h *Handlers) Locations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := h.locations(r)
	common.ObserveQuery("dissociate_locations", start, err)
	if err != nil {
		common.WriteQueryError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, res.Envelope())
}

func (h *Handlers) locations(r *http.Request) (*dissociate.LocationDissociation, error) {
	tolerance, err := common.FloatParam(r, "tolerance", dissociate.DefaultTolerance)
	if err != nil {
		return nil, err
	}
	return h.engine.DissociateLocations(r.Context(),
		chi.URLParam(r, "coords_a"), chi.URLParam(r, "coords_b"), tolerance)
}
