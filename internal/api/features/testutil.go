// Package features provides shared test utilities for API feature tests.
package features

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/voxelabs/studymap/internal/dissociate"
	"github.com/voxelabs/studymap/internal/store"
	"github.com/voxelabs/studymap/internal/testutil"
)

// SetupTestStore creates a connected in-memory store seeded with a
// small corpus: studies 1-3 mention "memory", 2-4 mention "reward",
// 5 mentions "working memory", and studies 10/11 report posterior
// cingulate coordinates 6mm apart.
func SetupTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()

	mem := store.NewMemory(testutil.NewTestLogger(t))
	require.NoError(t, mem.Connect(ctx, store.Config{Type: "memory"}))
	require.NoError(t, mem.BeginLoad(ctx))
	require.NoError(t, mem.InsertStudies(ctx, []store.Study{
		{ID: 1, Title: "Episodic memory retrieval", Year: 2009},
		{ID: 2, Title: "Memory and reward interactions", Year: 2012},
		{ID: 3, Title: "Hippocampal contributions", Year: 2015},
		{ID: 4, Title: "Reward prediction errors", Year: 2011},
		{ID: 5, Title: "Working memory load", Year: 2018},
	}))
	require.NoError(t, mem.InsertAnnotations(ctx, []store.Annotation{
		{StudyID: 1, ContrastID: "1", Term: "memory", Weight: 0.9},
		{StudyID: 2, ContrastID: "1", Term: "memory", Weight: 0.8},
		{StudyID: 2, ContrastID: "2", Term: "reward", Weight: 0.6},
		{StudyID: 3, ContrastID: "1", Term: "memory", Weight: 0.7},
		{StudyID: 3, ContrastID: "2", Term: "reward", Weight: 0.5},
		{StudyID: 4, ContrastID: "1", Term: "reward", Weight: 0.9},
		{StudyID: 5, ContrastID: "1", Term: "working memory", Weight: 0.4},
	}))
	require.NoError(t, mem.InsertCoordinates(ctx, []store.StudyPoint{
		{StudyID: 10, Point: store.Point{X: 0, Y: -52, Z: 26}},
		{StudyID: 11, Point: store.Point{X: 0, Y: -52, Z: 20}},
	}))
	require.NoError(t, mem.EndLoad(ctx, store.LoadRun{
		ID:        "fixture",
		Source:    "inline",
		StartedAt: time.Now().UTC(),
	}))

	t.Cleanup(func() {
		_ = mem.Close()
	})

	return mem
}

// SetupTestEngine creates a dissociation engine over the seeded test
// store.
func SetupTestEngine(t *testing.T) (*dissociate.Engine, *store.MemoryStore) {
	t.Helper()

	mem := SetupTestStore(t)
	eng, err := dissociate.New(dissociate.Config{
		Terms:   mem,
		Spatial: mem,
		Logger:  testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	return eng, mem
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithPathParams wraps a request with several chi URL params.
func RequestWithPathParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
