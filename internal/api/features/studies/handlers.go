// Package studies serves single-criterion membership queries: which
// studies mention a term, and which studies report activation near a
// coordinate.
package studies

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxelabs/studymap/internal/api/features/common"
	"github.com/voxelabs/studymap/internal/dissociate"
)

// Handlers provides the membership query handlers.
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

// TermStudies lists the studies annotated with a term, ascending by id.
// An unknown term is a valid query with an empty result.
func (h *Handlers) TermStudies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := h.engine.StudiesWithTerm(r.Context(), chi.URLParam(r, "term"))
	common.ObserveQuery("term_studies", start, err)
	if err != nil {
		common.WriteQueryError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, res.Envelope())
}

// LocationStudies lists the studies reporting a coordinate within the
// requested radius of the given center, ascending by id.
func (h *Handlers) LocationStudies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	res, err := h.locationStudies(r)
	common.ObserveQuery("location_studies", start, err)
	if err != nil {
		common.WriteQueryError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, res.Envelope())
}

func (h *Handlers) locationStudies(r *http.Request) (*dissociate.LocationStudies, error) {
	radius, err := common.FloatParam(r, "radius", dissociate.DefaultTolerance)
	if err != nil {
		return nil, err
	}
	return h.engine.StudiesNear(r.Context(), chi.URLParam(r, "coords"), radius)
}
