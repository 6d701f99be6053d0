package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/voxelabs/studymap/internal/metrics"
	"github.com/voxelabs/studymap/internal/store"
)

// Sink receives corpus rows during a load. Loads are staged: rows
// inserted between BeginLoad and EndLoad replace the previous corpus
// when EndLoad commits the run.
type Sink interface {
	BeginLoad(ctx context.Context) error
	InsertStudies(ctx context.Context, studies []store.Study) error
	InsertAnnotations(ctx context.Context, anns []store.Annotation) error
	InsertCoordinates(ctx context.Context, points []store.StudyPoint) error
	EndLoad(ctx context.Context, run store.LoadRun) error
}

// Every backend can receive a corpus load.
var (
	_ Sink = (*store.PostgresStore)(nil)
	_ Sink = (*store.SQLiteStore)(nil)
	_ Sink = (*store.MemoryStore)(nil)
)

// batchSize bounds the rows buffered per sink insert.
const batchSize = 500

// Loader streams manifest-described corpora into a sink.
type Loader struct {
	sink   Sink
	logger *slog.Logger
}

// New creates a loader writing to sink.
func New(sink Sink, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{sink: sink, logger: logger}
}

// Load replaces the sink's corpus with the manifest's files and records
// the run. The returned run carries per-file row counts and timing.
func (l *Loader) Load(ctx context.Context, manifest *Manifest) (*store.LoadRun, error) {
	run, err := l.load(ctx, manifest)
	if err != nil {
		metrics.CorpusLoadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.CorpusLoadsTotal.WithLabelValues("ok").Inc()
	metrics.CorpusRows.WithLabelValues("studies").Set(float64(run.Studies))
	metrics.CorpusRows.WithLabelValues("annotations").Set(float64(run.Annotations))
	metrics.CorpusRows.WithLabelValues("coordinates").Set(float64(run.Coordinates))
	return run, nil
}

func (l *Loader) load(ctx context.Context, manifest *Manifest) (*store.LoadRun, error) {
	start := time.Now()
	l.logger.Info("loading corpus", slog.String("source", manifest.Source))

	if err := l.sink.BeginLoad(ctx); err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}

	studies, err := l.loadStudies(ctx, manifest.Studies)
	if err != nil {
		return nil, err
	}
	annotations, err := l.loadAnnotations(ctx, manifest.Annotations)
	if err != nil {
		return nil, err
	}
	coordinates, err := l.loadCoordinates(ctx, manifest.Coordinates)
	if err != nil {
		return nil, err
	}

	run := store.LoadRun{
		ID:          uuid.NewString(),
		Source:      manifest.Source,
		Studies:     studies,
		Annotations: annotations,
		Coordinates: coordinates,
		StartedAt:   start.UTC(),
		Duration:    time.Since(start),
	}
	if err := l.sink.EndLoad(ctx, run); err != nil {
		return nil, fmt.Errorf("end load: %w", err)
	}

	l.logger.Info("corpus loaded",
		slog.String("run_id", run.ID),
		slog.Int64("studies", studies),
		slog.Int64("annotations", annotations),
		slog.Int64("coordinates", coordinates),
		slog.Duration("elapsed", run.Duration))
	return &run, nil
}
