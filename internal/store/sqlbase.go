package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// sqlStore provides common database/sql plumbing for the SQL-backed
// stores. Concrete backends embed it and supply their own SQL text; the
// table hook resolves bare table names to their dialect-qualified form.
type sqlStore struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	table func(name string) string
}

// Close closes the database connection.
func (b *sqlStore) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing store connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (b *sqlStore) Ping(ctx context.Context) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return b.DB.PingContext(ctx)
}

// queryCtx applies the configured query timeout.
func (b *sqlStore) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.Cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, b.Cfg.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// queryIDSet executes a query whose rows are single study_id columns and
// collects them into a StudySet.
func (b *sqlStore) queryIDSet(ctx context.Context, query string, args ...any) (*StudySet, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	ctx, cancel := b.queryCtx(ctx)
	defer cancel()

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	set := NewStudySet()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan study id: %w", err)
		}
		set.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating study ids: %w", err)
	}
	return set, nil
}

func (b *sqlStore) count(ctx context.Context, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", b.table(table)) //nolint:gosec // Table names are fixed schema identifiers
	var n int64
	if err := b.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// diagnose assembles the corpus diagnostics shared by the SQL backends.
// The version query is the only dialect-specific piece.
func (b *sqlStore) diagnose(ctx context.Context, dialect, versionQuery string) (*Diagnostics, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	ctx, cancel := b.queryCtx(ctx)
	defer cancel()

	d := &Diagnostics{Dialect: dialect}
	if err := b.DB.QueryRowContext(ctx, versionQuery).Scan(&d.Version); err != nil {
		return nil, fmt.Errorf("failed to query %s version: %w", dialect, err)
	}

	var err error
	if d.Studies, err = b.count(ctx, "metadata"); err != nil {
		return nil, err
	}
	if d.Annotations, err = b.count(ctx, "annotations_terms"); err != nil {
		return nil, err
	}
	if d.Coordinates, err = b.count(ctx, "coordinates"); err != nil {
		return nil, err
	}

	if d.StudySample, err = b.sampleStudies(ctx); err != nil {
		return nil, err
	}
	if d.AnnotationSample, err = b.sampleAnnotations(ctx); err != nil {
		return nil, err
	}
	if d.CoordinateSample, err = b.sampleCoordinates(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *sqlStore) sampleStudies(ctx context.Context) ([]Study, error) {
	query := fmt.Sprintf(
		"SELECT study_id, title, authors, journal, year, space FROM %s ORDER BY study_id LIMIT 3",
		b.table("metadata"))
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sample metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Study
	for rows.Next() {
		var st Study
		if err := rows.Scan(&st.ID, &st.Title, &st.Authors, &st.Journal, &st.Year, &st.Space); err != nil {
			return nil, fmt.Errorf("failed to scan metadata sample: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metadata sample: %w", err)
	}
	return out, nil
}

func (b *sqlStore) sampleAnnotations(ctx context.Context) ([]Annotation, error) {
	query := fmt.Sprintf(
		"SELECT study_id, contrast_id, term, weight FROM %s ORDER BY study_id, term LIMIT 3",
		b.table("annotations_terms"))
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sample annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Annotation
	for rows.Next() {
		var a Annotation
		if err := rows.Scan(&a.StudyID, &a.ContrastID, &a.Term, &a.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan annotation sample: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating annotation sample: %w", err)
	}
	return out, nil
}

func (b *sqlStore) sampleCoordinates(ctx context.Context) ([]StudyPoint, error) {
	query := fmt.Sprintf(
		"SELECT study_id, x, y, z FROM %s ORDER BY study_id LIMIT 3",
		b.table("coordinates"))
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to sample coordinates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StudyPoint
	for rows.Next() {
		var p StudyPoint
		if err := rows.Scan(&p.StudyID, &p.X, &p.Y, &p.Z); err != nil {
			return nil, fmt.Errorf("failed to scan coordinate sample: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coordinate sample: %w", err)
	}
	return out, nil
}

// latestLoadRun retrieves the most recent corpus load row. Both SQL
// backends store load runs with the same column layout.
func (b *sqlStore) latestLoadRun(ctx context.Context) (*LoadRun, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	ctx, cancel := b.queryCtx(ctx)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT id, source, studies, annotations, coordinates, started_at, duration_ms FROM %s ORDER BY started_at DESC LIMIT 1",
		b.table("corpus_loads"))

	var run LoadRun
	var durationMs int64
	err := b.DB.QueryRowContext(ctx, query).Scan(
		&run.ID, &run.Source, &run.Studies, &run.Annotations, &run.Coordinates, &run.StartedAt, &durationMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest load run: %w", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

// valuesClause builds a multi-row VALUES clause for rows of width columns,
// numbering placeholders from 1 via the dialect's placeholder function.
func valuesClause(rows, width int, placeholder func(n int) string) string {
	var sb strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 0; c < width; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(placeholder(n))
			n++
		}
		sb.WriteString(")")
	}
	return sb.String()
}
