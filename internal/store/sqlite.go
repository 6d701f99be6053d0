package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // registers the sqlite driver
)

func init() {
	Register("sqlite", func(logger *slog.Logger) Store {
		return NewSQLite(logger)
	})
}

// SQLiteStore implements the Store interface for an embedded SQLite
// corpus. Use path ":memory:" for a throwaway in-memory database.
type SQLiteStore struct {
	sqlStore
	path string
}

// NewSQLite creates a new SQLite store instance.
// If logger is nil, a discard logger is used.
func NewSQLite(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{
		sqlStore: sqlStore{Logger: logger},
	}
}

// Connect opens the SQLite database file.
func (s *SQLiteStore) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	s.Logger.Debug("opening sqlite database", slog.String("path", path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	s.path = path
	s.table = func(name string) string { return name }
	return nil
}

// StudiesWithTerm returns the studies annotated with the given term,
// matched case-insensitively.
func (s *SQLiteStore) StudiesWithTerm(ctx context.Context, term string) (*StudySet, error) {
	set, err := s.queryIDSet(ctx,
		"SELECT DISTINCT study_id FROM annotations_terms WHERE LOWER(term) = LOWER(?) ORDER BY study_id",
		term)
	if err != nil {
		return nil, fmt.Errorf("studies with term %q: %w", term, err)
	}
	return set, nil
}

// StudiesNear returns the studies reporting at least one coordinate
// within radius of center, boundary included.
func (s *SQLiteStore) StudiesNear(ctx context.Context, center Point, radius float64) (*StudySet, error) {
	set, err := s.queryIDSet(ctx,
		`SELECT DISTINCT study_id FROM coordinates
		 WHERE (x - ?) * (x - ?) + (y - ?) * (y - ?) + (z - ?) * (z - ?) <= ? * ?
		 ORDER BY study_id`,
		center.X, center.X, center.Y, center.Y, center.Z, center.Z, radius, radius)
	if err != nil {
		return nil, fmt.Errorf("studies near (%g, %g, %g): %w", center.X, center.Y, center.Z, err)
	}
	return set, nil
}

// Diagnostics reports corpus counts, library version and row samples.
func (s *SQLiteStore) Diagnostics(ctx context.Context) (*Diagnostics, error) {
	return s.diagnose(ctx, "sqlite", "SELECT sqlite_version()")
}

// LatestLoadRun returns the most recent corpus load, or nil when the
// corpus has never been loaded.
func (s *SQLiteStore) LatestLoadRun(ctx context.Context) (*LoadRun, error) {
	return s.latestLoadRun(ctx)
}

// Migrate brings the corpus schema up to date.
func (s *SQLiteStore) Migrate() error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return Migrate(s.DB, "sqlite", "")
}

// MigrateDown rolls back the most recent migration.
func (s *SQLiteStore) MigrateDown() error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return MigrateDown(s.DB, "sqlite", "")
}

// MigrationVersion returns the current schema version.
func (s *SQLiteStore) MigrationVersion() (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	return MigrationVersion(s.DB, "sqlite", "")
}

// BeginLoad clears the corpus tables ahead of a full load.
func (s *SQLiteStore) BeginLoad(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	for _, table := range []string{"annotations_terms", "coordinates", "metadata"} {
		if _, err := s.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// InsertStudies bulk-loads study metadata rows.
func (s *SQLiteStore) InsertStudies(ctx context.Context, studies []Study) error {
	if len(studies) == 0 {
		return nil
	}
	args := make([]any, 0, len(studies)*6)
	for _, st := range studies {
		args = append(args, st.ID, st.Title, st.Authors, st.Journal, st.Year, st.Space)
	}
	query := "INSERT INTO metadata (study_id, title, authors, journal, year, space) VALUES " +
		valuesClause(len(studies), 6, sqlitePlaceholder)
	return s.execInsert(ctx, "metadata", query, args)
}

// InsertAnnotations bulk-loads term annotation rows.
func (s *SQLiteStore) InsertAnnotations(ctx context.Context, anns []Annotation) error {
	if len(anns) == 0 {
		return nil
	}
	args := make([]any, 0, len(anns)*4)
	for _, a := range anns {
		args = append(args, a.StudyID, a.ContrastID, a.Term, a.Weight)
	}
	query := "INSERT INTO annotations_terms (study_id, contrast_id, term, weight) VALUES " +
		valuesClause(len(anns), 4, sqlitePlaceholder)
	return s.execInsert(ctx, "annotations_terms", query, args)
}

// InsertCoordinates bulk-loads activation coordinate rows.
func (s *SQLiteStore) InsertCoordinates(ctx context.Context, points []StudyPoint) error {
	if len(points) == 0 {
		return nil
	}
	args := make([]any, 0, len(points)*4)
	for _, p := range points {
		args = append(args, p.StudyID, p.X, p.Y, p.Z)
	}
	query := "INSERT INTO coordinates (study_id, x, y, z) VALUES " +
		valuesClause(len(points), 4, sqlitePlaceholder)
	return s.execInsert(ctx, "coordinates", query, args)
}

// EndLoad records the completed load run.
func (s *SQLiteStore) EndLoad(ctx context.Context, run LoadRun) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO corpus_loads (id, source, studies, annotations, coordinates, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Source, run.Studies, run.Annotations, run.Coordinates,
		run.StartedAt.UTC(), run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record load run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) execInsert(ctx context.Context, table, query string, args []any) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func sqlitePlaceholder(int) string { return "?" }

// Ensure SQLiteStore implements the Store interface
var _ Store = (*SQLiteStore)(nil)
