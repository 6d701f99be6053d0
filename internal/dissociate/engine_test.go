package dissociate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelabs/studymap/internal/store"
	"github.com/voxelabs/studymap/internal/testutil"
)

// newTestEngine builds an engine over an in-memory corpus:
//
//	memory -> studies {1, 2, 3}
//	reward -> studies {2, 3, 4}
//	study 10 at (0, -52, 26), study 11 at (0, -52, 20)
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()

	mem := store.NewMemory(testutil.NewTestLogger(t))
	require.NoError(t, mem.Connect(ctx, store.Config{Type: "memory"}))
	require.NoError(t, mem.BeginLoad(ctx))
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
	require.NoError(t, mem.EndLoad(ctx, store.LoadRun{ID: "test", Source: "inline", StartedAt: time.Now().UTC()}))

	eng, err := New(Config{Terms: mem, Spatial: mem, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return eng
}

func TestNew_RequiresStores(t *testing.T) {
	mem := store.NewMemory(nil)

	_, err := New(Config{Spatial: mem})
	assert.Error(t, err, "missing term store should fail")

	_, err = New(Config{Terms: mem})
	assert.Error(t, err, "missing spatial store should fail")

	eng, err := New(Config{Terms: mem, Spatial: mem})
	require.NoError(t, err)
	assert.NotNil(t, eng)
}

func TestDissociateTerms(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	res, err := eng.DissociateTerms(ctx, "memory", "reward")
	require.NoError(t, err)

	assert.Equal(t, "memory", res.TermA)
	assert.Equal(t, "reward", res.TermB)
	assert.Equal(t, []int64{1}, res.ANotB.IDs())
	assert.Equal(t, []int64{4}, res.BNotA.IDs())
}

func TestDissociateTerms_NormalizesInput(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	res, err := eng.DissociateTerms(ctx, "MEMORY", "  Reward ")
	require.NoError(t, err)

	assert.Equal(t, "memory", res.TermA)
	assert.Equal(t, "reward", res.TermB)
	assert.Equal(t, []int64{1}, res.ANotB.IDs())
	assert.Equal(t, []int64{4}, res.BNotA.IDs())
}

func TestDissociateTerms_UnderscoredMultiWord(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.DissociateTerms(context.Background(), "working_memory", "reward")
	require.NoError(t, err)

	assert.Equal(t, "working memory", res.TermA)
	assert.Equal(t, []int64{5}, res.ANotB.IDs())
	assert.Equal(t, []int64{2, 3, 4}, res.BNotA.IDs())
}

// Swapping the terms swaps the two result sides.
func TestDissociateTerms_Symmetry(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	ab, err := eng.DissociateTerms(ctx, "memory", "reward")
	require.NoError(t, err)
	ba, err := eng.DissociateTerms(ctx, "reward", "memory")
	require.NoError(t, err)

	assert.Equal(t, ab.ANotB.IDs(), ba.BNotA.IDs())
	assert.Equal(t, ab.BNotA.IDs(), ba.ANotB.IDs())
}

// A term dissociated against itself yields two empty sides.
func TestDissociateTerms_SelfDissociation(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.DissociateTerms(context.Background(), "memory", "Memory")
	require.NoError(t, err)

	assert.True(t, res.ANotB.IsEmpty())
	assert.True(t, res.BNotA.IsEmpty())
}

// |A| == |A \ B| + |A intersect B| holds for every evaluated pair.
func TestDissociateTerms_PartitionCardinality(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	setA, err := eng.StudiesWithTerm(ctx, "memory")
	require.NoError(t, err)
	setB, err := eng.StudiesWithTerm(ctx, "reward")
	require.NoError(t, err)

	res, err := eng.DissociateTerms(ctx, "memory", "reward")
	require.NoError(t, err)

	inter := setA.Studies.Intersect(setB.Studies)
	assert.Equal(t, setA.Studies.Cardinality(), res.ANotB.Cardinality()+inter.Cardinality())
	assert.Equal(t, setB.Studies.Cardinality(), res.BNotA.Cardinality()+inter.Cardinality())
}

// An unknown term contributes an empty set, never an error, so the known
// side's studies all survive the difference.
func TestDissociateTerms_UnknownTerm(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.DissociateTerms(context.Background(), "memory", "telepathy")
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, res.ANotB.IDs())
	assert.True(t, res.BNotA.IsEmpty())
}

func TestDissociateTerms_EmptyTerm(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.DissociateTerms(context.Background(), "memory", "__")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestDissociateLocations(t *testing.T) {
	eng := newTestEngine(t)

	// Study 10 is at the first center and study 11 is 6mm from it, both
	// inside the 8mm sphere. Neither is within 8mm of the second center.
	res, err := eng.DissociateLocations(context.Background(), "0_-52_26", "0_-52_40", DefaultTolerance)
	require.NoError(t, err)

	assert.Equal(t, store.Point{X: 0, Y: -52, Z: 26}, res.CoordA)
	assert.Equal(t, store.Point{X: 0, Y: -52, Z: 40}, res.CoordB)
	assert.Equal(t, []int64{10, 11}, res.ANotB.IDs())
	assert.True(t, res.BNotA.IsEmpty())
}

func TestDissociateLocations_CoincidentCenters(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.DissociateLocations(context.Background(), "0_-52_26", "0_-52_26", 8)
	require.NoError(t, err)

	assert.True(t, res.ANotB.IsEmpty())
	assert.True(t, res.BNotA.IsEmpty())
}

func TestDissociateLocations_MalformedCoordinate(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.DissociateLocations(ctx, "1_2", "0_-52_26", 8)
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))

	_, err = eng.DissociateLocations(ctx, "0_-52_26", "not_a_coord", 8)
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestDissociateLocations_InvalidTolerance(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.DissociateLocations(context.Background(), "0_-52_26", "0_-52_40", -3)
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

// Growing the tolerance can only grow a membership set.
func TestStudiesNear_ToleranceMonotonic(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	prev := uint64(0)
	for _, tol := range []float64{0, 2, 6, 8, 20, 100} {
		res, err := eng.StudiesNear(ctx, "0_-52_26", tol)
		require.NoError(t, err)
		n := res.Studies.Cardinality()
		assert.GreaterOrEqual(t, n, prev, "tolerance %gmm shrank the membership set", tol)
		prev = n
	}
}

func TestStudiesNear_BoundaryIncluded(t *testing.T) {
	eng := newTestEngine(t)

	// Study 11 sits exactly 6mm from the center.
	res, err := eng.StudiesNear(context.Background(), "0_-52_26", 6)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, res.Studies.IDs())
}

func TestStudiesWithTerm_Membership(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.StudiesWithTerm(context.Background(), "Reward")
	require.NoError(t, err)
	assert.Equal(t, "reward", res.Term)
	assert.Equal(t, []int64{2, 3, 4}, res.Studies.IDs())
}

func TestStudiesWithTerm_EmptyCorpusSide(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.StudiesWithTerm(context.Background(), "telepathy")
	require.NoError(t, err)
	assert.True(t, res.Studies.IsEmpty(), "unknown terms are empty memberships, not errors")
}

// failingTermStore and failingSpatialStore surface store outages.
type failingTermStore struct{ err error }

func (f *failingTermStore) StudiesWithTerm(context.Context, string) (*store.StudySet, error) {
	return nil, f.err
}

type failingSpatialStore struct{ err error }

func (f *failingSpatialStore) StudiesNear(context.Context, store.Point, float64) (*store.StudySet, error) {
	return nil, f.err
}

func TestDissociateTerms_StoreFailure(t *testing.T) {
	eng, err := New(Config{
		Terms:   &failingTermStore{err: assert.AnError},
		Spatial: &failingSpatialStore{err: assert.AnError},
	})
	require.NoError(t, err)

	_, err = eng.DissociateTerms(context.Background(), "memory", "reward")
	require.Error(t, err)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "term", storeErr.Kind)
	assert.False(t, IsInvalidInput(err), "store outages are not client errors")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDissociateLocations_StoreFailure(t *testing.T) {
	eng, err := New(Config{
		Terms:   &failingTermStore{err: assert.AnError},
		Spatial: &failingSpatialStore{err: assert.AnError},
	})
	require.NoError(t, err)

	_, err = eng.DissociateLocations(context.Background(), "0_0_0", "1_1_1", 8)
	require.Error(t, err)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "spatial", storeErr.Kind)
}

// Validation failures must reject the request before any store call.
func TestValidationPrecedesStoreAccess(t *testing.T) {
	calls := 0
	eng, err := New(Config{
		Terms:   &countingTermStore{calls: &calls},
		Spatial: &failingSpatialStore{err: assert.AnError},
	})
	require.NoError(t, err)

	_, err = eng.DissociateTerms(context.Background(), "", "reward")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
	assert.Zero(t, calls, "no store call may happen for invalid input")
}

type countingTermStore struct{ calls *int }

func (c *countingTermStore) StudiesWithTerm(context.Context, string) (*store.StudySet, error) {
	*c.calls++
	return store.NewStudySet(), nil
}
