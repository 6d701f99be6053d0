package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/cases"
)

func init() {
	Register("memory", func(logger *slog.Logger) Store {
		return NewMemory(logger)
	})
}

// MemoryStore implements the Store interface with in-process indexes:
// a case-folded term index of roaring study sets and a vantage point tree
// over activation coordinates. It serves development and test deployments
// where no database is provisioned, and is rebuilt wholesale on every
// corpus load so readers never observe a half-loaded corpus.
type MemoryStore struct {
	logger *slog.Logger

	mu          sync.RWMutex
	terms       map[string]*StudySet
	tree        *vpTree
	studies     []Study
	annotations []Annotation
	points      []StudyPoint
	lastRun     *LoadRun

	// staging buffers filled between BeginLoad and EndLoad
	stageStudies     []Study
	stageAnnotations []Annotation
	stagePoints      []StudyPoint
}

// NewMemory creates a new empty in-memory store.
// If logger is nil, a discard logger is used.
func NewMemory(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MemoryStore{
		logger: logger,
		terms:  make(map[string]*StudySet),
		tree:   newVPTree(nil),
	}
}

// Connect initializes the empty indexes. The corpus is populated through
// the bulk load contract.
func (s *MemoryStore) Connect(ctx context.Context, cfg Config) error {
	return nil
}

// Close releases nothing; the indexes are garbage collected.
func (s *MemoryStore) Close() error {
	return nil
}

// Ping always succeeds for an in-process store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// StudiesWithTerm returns the studies annotated with the given term,
// matched on the case-folded text. Unknown terms yield an empty set.
func (s *MemoryStore) StudiesWithTerm(ctx context.Context, term string) (*StudySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("studies with term %q: %w", term, err)
	}
	folded := cases.Fold().String(term)

	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.terms[folded]
	if !ok {
		return NewStudySet(), nil
	}
	return set.Clone(), nil
}

// StudiesNear returns the studies reporting at least one coordinate within
// radius of center, boundary included.
func (s *MemoryStore) StudiesNear(ctx context.Context, center Point, radius float64) (*StudySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("studies near (%g, %g, %g): %w", center.X, center.Y, center.Z, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	set := NewStudySet()
	for _, p := range s.tree.search(center, radius) {
		set.Add(p.StudyID)
	}
	return set, nil
}

// Diagnostics reports corpus counts and row samples.
func (s *MemoryStore) Diagnostics(ctx context.Context) (*Diagnostics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Diagnostics{
		Dialect:          "memory",
		Version:          "in-process",
		Studies:          int64(len(s.studies)),
		Annotations:      int64(len(s.annotations)),
		Coordinates:      int64(len(s.points)),
		StudySample:      sampleOf(s.studies),
		AnnotationSample: sampleOf(s.annotations),
		CoordinateSample: sampleOf(s.points),
	}, nil
}

// LatestLoadRun returns the most recent load, or nil before the first one.
func (s *MemoryStore) LatestLoadRun(ctx context.Context) (*LoadRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil, nil
	}
	run := *s.lastRun
	return &run, nil
}

// BeginLoad resets the staging buffers. Queries keep serving the previous
// corpus until EndLoad swaps the rebuilt indexes in.
func (s *MemoryStore) BeginLoad(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageStudies = nil
	s.stageAnnotations = nil
	s.stagePoints = nil
	return nil
}

// InsertStudies stages study metadata rows.
func (s *MemoryStore) InsertStudies(ctx context.Context, studies []Study) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageStudies = append(s.stageStudies, studies...)
	return nil
}

// InsertAnnotations stages term annotation rows.
func (s *MemoryStore) InsertAnnotations(ctx context.Context, anns []Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageAnnotations = append(s.stageAnnotations, anns...)
	return nil
}

// InsertCoordinates stages activation coordinate rows.
func (s *MemoryStore) InsertCoordinates(ctx context.Context, points []StudyPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stagePoints = append(s.stagePoints, points...)
	return nil
}

// EndLoad builds the indexes from the staged rows and swaps them in.
func (s *MemoryStore) EndLoad(ctx context.Context, run LoadRun) error {
	s.mu.Lock()
	studies := s.stageStudies
	anns := s.stageAnnotations
	points := s.stagePoints
	s.stageStudies = nil
	s.stageAnnotations = nil
	s.stagePoints = nil
	s.mu.Unlock()

	fold := cases.Fold()
	terms := make(map[string]*StudySet)
	for _, a := range anns {
		key := fold.String(a.Term)
		set, ok := terms[key]
		if !ok {
			set = NewStudySet()
			terms[key] = set
		}
		set.Add(a.StudyID)
	}

	tree := newVPTree(points)

	sort.Slice(studies, func(i, j int) bool { return studies[i].ID < studies[j].ID })
	sort.Slice(anns, func(i, j int) bool {
		if anns[i].StudyID != anns[j].StudyID {
			return anns[i].StudyID < anns[j].StudyID
		}
		return anns[i].Term < anns[j].Term
	})
	sort.Slice(points, func(i, j int) bool { return points[i].StudyID < points[j].StudyID })

	s.mu.Lock()
	s.terms = terms
	s.tree = tree
	s.studies = studies
	s.annotations = anns
	s.points = points
	s.lastRun = &run
	s.mu.Unlock()

	s.logger.Info("corpus indexes rebuilt",
		slog.Int("studies", len(studies)),
		slog.Int("terms", len(terms)),
		slog.Int("coordinates", len(points)),
		slog.Duration("load_duration", run.Duration))
	return nil
}

// Loaded reports whether a corpus load has completed.
func (s *MemoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun != nil
}

func sampleOf[T any](rows []T) []T {
	n := len(rows)
	if n > 3 {
		n = 3
	}
	out := make([]T, n)
	copy(out, rows[:n])
	return out
}

var _ Store = (*MemoryStore)(nil)
