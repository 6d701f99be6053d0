package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelabs/studymap/internal/api/features"
	"github.com/voxelabs/studymap/internal/store"
)

type unreachableStore struct {
	store.Store
	err error
}

func (s *unreachableStore) Ping(_ context.Context) error {
	return s.err
}

func getHealthz(t *testing.T, h *Handlers) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	mem := features.SetupTestStore(t)
	h := NewHandlers(mem, "1.2.3")

	rec := getHealthz(t, h)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, "ok", body.Components["store"].Status)
	assert.Empty(t, body.Components["store"].Error)
}

func TestHealthz_StoreUnreachable(t *testing.T) {
	h := NewHandlers(&unreachableStore{err: errors.New("connection refused")}, "1.2.3")

	rec := getHealthz(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unreachable", body.Components["store"].Status)
	assert.Contains(t, body.Components["store"].Error, "connection refused")
}
