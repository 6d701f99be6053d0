// Package common provides the shared response envelope and error
// mapping used by all API features.
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/voxelabs/studymap/internal/dissociate"
	"github.com/voxelabs/studymap/internal/metrics"
)

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// WriteQueryError maps a query error onto the wire. Validation failures
// are client errors carrying the validation message; store failures are
// server errors naming the store and criterion that failed.
func WriteQueryError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if dissociate.IsInvalidInput(err) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var storeErr *dissociate.StoreError
	if errors.As(err, &storeErr) {
		logger.Error("store lookup failed",
			slog.String("store", storeErr.Kind),
			slog.String("criterion", storeErr.Criterion),
			slog.Any("error", storeErr.Err),
		)
		WriteError(w, http.StatusInternalServerError, storeErr.Error())
		return
	}

	logger.Error("query failed", slog.Any("error", err))
	WriteError(w, http.StatusInternalServerError, "internal server error")
}

// FloatParam reads an optional float query parameter, falling back to
// def when absent. A value that does not parse is a validation failure.
func FloatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &dissociate.InvalidInputError{
			Field:  name,
			Reason: fmt.Sprintf("invalid %s %q: must be a number of millimeters", name, raw),
		}
	}
	return v, nil
}

// ObserveQuery records the outcome and latency of one query endpoint.
func ObserveQuery(mode string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case dissociate.IsInvalidInput(err):
		status = "invalid"
	default:
		status = "error"
	}
	metrics.QueriesTotal.WithLabelValues(mode, status).Inc()
	metrics.QueryDurationSeconds.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
