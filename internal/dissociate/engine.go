// Package dissociate implements the dissociation query engine.
// It resolves two membership criteria against the study corpus and
// computes both one-sided set differences between them.
package dissociate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxelabs/studymap/internal/metrics"
	"github.com/voxelabs/studymap/internal/store"
)

// Engine evaluates membership and dissociation queries. It owns no
// state beyond its store handles and is safe for concurrent use; each
// query issues its store lookups with the request's context and never
// retries on failure.
type Engine struct {
	terms   store.TermStore
	spatial store.SpatialStore
	logger  *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Terms resolves term membership lookups
	Terms store.TermStore
	// Spatial resolves coordinate proximity lookups
	Spatial store.SpatialStore
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine. Both store handles are required.
func New(cfg Config) (*Engine, error) {
	if cfg.Terms == nil {
		return nil, fmt.Errorf("term store is required")
	}
	if cfg.Spatial == nil {
		return nil, fmt.Errorf("spatial store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		terms:   cfg.Terms,
		spatial: cfg.Spatial,
		logger:  logger,
	}, nil
}

// DissociateTerms computes both one-sided differences between the study
// sets of two terms. Inputs are raw query text and are normalized before
// any store access; a term missing from the corpus contributes an empty
// set rather than an error.
func (e *Engine) DissociateTerms(ctx context.Context, rawA, rawB string) (*TermDissociation, error) {
	termA, err := NormalizeTerm(rawA)
	if err != nil {
		return nil, err
	}
	termB, err := NormalizeTerm(rawB)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	setA, setB, err := e.fetchBoth(ctx, e.termFetch(termA), e.termFetch(termB))
	if err != nil {
		return nil, err
	}

	res := &TermDissociation{
		TermA: termA,
		TermB: termB,
		ANotB: setA.Difference(setB),
		BNotA: setB.Difference(setA),
	}
	e.logger.Debug("term dissociation evaluated",
		slog.String("term_a", termA),
		slog.String("term_b", termB),
		slog.Uint64("a_not_b", res.ANotB.Cardinality()),
		slog.Uint64("b_not_a", res.BNotA.Cardinality()),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// DissociateLocations computes both one-sided differences between the
// study sets near two coordinates. Raw coordinates use the "x_y_z"
// format; tolerance is the matching radius in millimeters and must be
// finite and non-negative.
func (e *Engine) DissociateLocations(ctx context.Context, rawA, rawB string, tolerance float64) (*LocationDissociation, error) {
	coordA, err := ParseCoordinate(rawA)
	if err != nil {
		return nil, err
	}
	coordB, err := ParseCoordinate(rawB)
	if err != nil {
		return nil, err
	}
	if err := ValidateTolerance(tolerance); err != nil {
		return nil, err
	}

	start := time.Now()
	setA, setB, err := e.fetchBoth(ctx, e.spatialFetch(coordA, tolerance), e.spatialFetch(coordB, tolerance))
	if err != nil {
		return nil, err
	}

	res := &LocationDissociation{
		CoordA:    coordA,
		CoordB:    coordB,
		Tolerance: tolerance,
		ANotB:     setA.Difference(setB),
		BNotA:     setB.Difference(setA),
	}
	e.logger.Debug("location dissociation evaluated",
		slog.Float64("tolerance_mm", tolerance),
		slog.Uint64("a_not_b", res.ANotB.Cardinality()),
		slog.Uint64("b_not_a", res.BNotA.Cardinality()),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// StudiesWithTerm resolves the full membership set of one term.
func (e *Engine) StudiesWithTerm(ctx context.Context, raw string) (*TermStudies, error) {
	term, err := NormalizeTerm(raw)
	if err != nil {
		return nil, err
	}
	set, err := e.termFetch(term)(ctx)
	if err != nil {
		return nil, err
	}
	return &TermStudies{Term: term, Studies: set}, nil
}

// StudiesNear resolves the membership set around one coordinate with the
// given radius in millimeters.
func (e *Engine) StudiesNear(ctx context.Context, rawCoord string, radius float64) (*LocationStudies, error) {
	center, err := ParseCoordinate(rawCoord)
	if err != nil {
		return nil, err
	}
	if err := ValidateTolerance(radius); err != nil {
		return nil, err
	}
	set, err := e.spatialFetch(center, radius)(ctx)
	if err != nil {
		return nil, err
	}
	return &LocationStudies{Center: center, Radius: radius, Studies: set}, nil
}

type fetchFunc func(ctx context.Context) (*store.StudySet, error)

func (e *Engine) termFetch(term string) fetchFunc {
	return func(ctx context.Context) (*store.StudySet, error) {
		start := time.Now()
		set, err := e.terms.StudiesWithTerm(ctx, term)
		metrics.StoreLookupDurationSeconds.WithLabelValues("term").Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, &StoreError{Kind: "term", Criterion: term, Err: err}
		}
		return set, nil
	}
}

func (e *Engine) spatialFetch(center store.Point, radius float64) fetchFunc {
	return func(ctx context.Context) (*store.StudySet, error) {
		start := time.Now()
		set, err := e.spatial.StudiesNear(ctx, center, radius)
		metrics.StoreLookupDurationSeconds.WithLabelValues("spatial").Observe(time.Since(start).Seconds())
		if err != nil {
			criterion := fmt.Sprintf("(%g, %g, %g) r=%gmm", center.X, center.Y, center.Z, radius)
			return nil, &StoreError{Kind: "spatial", Criterion: criterion, Err: err}
		}
		return set, nil
	}
}

// fetchBoth resolves two membership sets concurrently and waits for
// both. The sides are independent; a failure on either cancels the
// sibling lookup through the group context.
func (e *Engine) fetchBoth(ctx context.Context, fetchA, fetchB fetchFunc) (*store.StudySet, *store.StudySet, error) {
	var setA, setB *store.StudySet

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		setA, err = fetchA(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		setB, err = fetchB(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return setA, setB, nil
}
