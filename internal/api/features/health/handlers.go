// Package health exposes the liveness and readiness probe.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/voxelabs/studymap/internal/api/features/common"
	"github.com/voxelabs/studymap/internal/store"
)

const checkTimeout = 5 * time.Second

// Handlers provides the health probe handler.
type Handlers struct {
	store   store.Store
	version string
	startAt time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st store.Store, version string) *Handlers {
	return &Handlers{
		store:   st,
		version: version,
		startAt: time.Now(),
	}
}

// Healthz reports liveness and store readiness. The process answering
// at all means it is live; the store ping decides between 200 and 503.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := Response{
		Status:     "ok",
		Version:    h.version,
		Uptime:     time.Since(h.startAt).Truncate(time.Second).String(),
		Components: map[string]ComponentCheck{},
	}

	status := http.StatusOK
	pingStart := time.Now()
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Components["store"] = ComponentCheck{
			Status: "unreachable",
			Error:  err.Error(),
		}
		status = http.StatusServiceUnavailable
	} else {
		resp.Components["store"] = ComponentCheck{
			Status:  "ok",
			Latency: time.Since(pingStart).Truncate(time.Microsecond).String(),
		}
	}

	common.WriteJSON(w, status, resp)
}
