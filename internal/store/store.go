// Package store provides the study corpus storage contract and its
// backends.
//
// A Store answers two membership questions: which studies are annotated
// with a term, and which studies report a coordinate near a point. The
// dissociation engine consumes exactly that contract; everything else here
// (diagnostics, bulk ingest, the backend registry) is operational plumbing
// around it. Concrete backends live in postgres.go, sqlite.go and
// memory.go and register themselves by name.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"
)

// Point is a 3-D stereotactic coordinate in millimeters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Study is one row of study metadata.
type Study struct {
	ID      int64  `json:"study_id"`
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Journal string `json:"journal"`
	Year    int    `json:"year"`
	Space   string `json:"space"`
}

// Annotation links a study contrast to a term with an association weight.
type Annotation struct {
	StudyID    int64   `json:"study_id"`
	ContrastID string  `json:"contrast_id"`
	Term       string  `json:"term"`
	Weight     float64 `json:"weight"`
}

// StudyPoint is one reported activation coordinate of a study.
type StudyPoint struct {
	StudyID int64 `json:"study_id"`
	Point
}

// LoadRun records one bulk corpus load.
type LoadRun struct {
	ID          string        `json:"id"`
	Source      string        `json:"source"`
	Studies     int64         `json:"studies"`
	Annotations int64         `json:"annotations"`
	Coordinates int64         `json:"coordinates"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// Diagnostics is a snapshot of corpus health used by the status surfaces.
type Diagnostics struct {
	Dialect          string
	Version          string
	Studies          int64
	Annotations      int64
	Coordinates      int64
	StudySample      []Study
	AnnotationSample []Annotation
	CoordinateSample []StudyPoint
}

// Config holds the connection settings for a store backend.
type Config struct {
	Type         string
	Path         string
	Host         string
	Port         int
	Database     string
	Schema       string
	Username     string
	Password     string
	Options      map[string]string
	QueryTimeout time.Duration
}

// TermStore resolves a normalized term to the studies annotated with it.
// An unknown term yields an empty set, not an error.
type TermStore interface {
	StudiesWithTerm(ctx context.Context, term string) (*StudySet, error)
}

// SpatialStore resolves a center and radius to the studies reporting at
// least one coordinate within radius of center. The boundary is included:
// a coordinate exactly radius away matches, and radius zero degenerates to
// an exact coordinate match.
type SpatialStore interface {
	StudiesNear(ctx context.Context, center Point, radius float64) (*StudySet, error)
}

// Store is the full contract a backend must implement.
type Store interface {
	TermStore
	SpatialStore

	// Connect establishes the backend connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the backend connection and resources.
	Close() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Diagnostics reports corpus counts, backend version and small row
	// samples for the status surfaces.
	Diagnostics(ctx context.Context) (*Diagnostics, error)

	// LatestLoadRun returns the most recent recorded corpus load, or nil
	// when the corpus has never been loaded.
	LatestLoadRun(ctx context.Context) (*LoadRun, error)

	// Corpus loading. Loads are staged: rows inserted between BeginLoad
	// and EndLoad replace the previous corpus when EndLoad commits the run.
	BeginLoad(ctx context.Context) error
	InsertStudies(ctx context.Context, studies []Study) error
	InsertAnnotations(ctx context.Context, anns []Annotation) error
	InsertCoordinates(ctx context.Context, points []StudyPoint) error
	EndLoad(ctx context.Context, run LoadRun) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Store)
)

// Register adds a store factory to the registry.
// Called by backend implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Store) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates an unconnected store instance for the configured backend
// type. The logger is passed to the backend constructor (nil uses a
// discard logger).
func New(cfg Config, logger *slog.Logger) (Store, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("store type not specified")
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownBackendError{
			Type:      cfg.Type,
			Available: Backends(),
		}
	}
	return factory(logger), nil
}

// Open creates a store and connects it in one step.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	s, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// IsRegistered reports whether a backend with the given name exists.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Backends returns all registered backend names (sorted).
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownBackendError is returned when an unknown backend type is requested.
type UnknownBackendError struct {
	Type      string
	Available []string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown store type %q\nAvailable stores: %v\nHint: Check your store.type in studymap.yaml", e.Type, e.Available)
}
