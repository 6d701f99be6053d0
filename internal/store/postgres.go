package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
)

func init() {
	Register("postgres", func(logger *slog.Logger) Store {
		return NewPostgres(logger)
	})
}

// PostgresStore implements the Store interface for PostgreSQL. Corpus
// tables live in a dedicated schema ("ns" unless configured otherwise).
type PostgresStore struct {
	sqlStore
	schema string
}

// NewPostgres creates a new PostgreSQL store instance.
// If logger is nil, a discard logger is used.
func NewPostgres(logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresStore{
		sqlStore: sqlStore{Logger: logger},
	}
}

// Connect establishes a connection to PostgreSQL.
func (s *PostgresStore) Connect(ctx context.Context, cfg Config) error {
	dsn := buildPostgresDSN(cfg)

	s.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	s.schema = cfg.Schema
	if s.schema == "" {
		s.schema = "ns"
	}
	s.table = func(name string) string { return s.schema + "." + name }
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg Config) string {
	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// StudiesWithTerm returns the studies annotated with the given term.
// Matching is case-insensitive on the stored term text; a term absent
// from the corpus yields an empty set.
func (s *PostgresStore) StudiesWithTerm(ctx context.Context, term string) (*StudySet, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT study_id FROM %s WHERE LOWER(term) = LOWER($1) ORDER BY study_id",
		s.table("annotations_terms"))
	set, err := s.queryIDSet(ctx, query, term)
	if err != nil {
		return nil, fmt.Errorf("studies with term %q: %w", term, err)
	}
	return set, nil
}

// StudiesNear returns the studies reporting at least one coordinate
// within radius of center. The comparison is on squared Euclidean
// distance so the boundary is included without a sqrt round trip.
func (s *PostgresStore) StudiesNear(ctx context.Context, center Point, radius float64) (*StudySet, error) {
	query := fmt.Sprintf(
		`SELECT DISTINCT study_id FROM %s
		 WHERE (x - $1) * (x - $1) + (y - $2) * (y - $2) + (z - $3) * (z - $3) <= $4 * $4
		 ORDER BY study_id`,
		s.table("coordinates"))
	set, err := s.queryIDSet(ctx, query, center.X, center.Y, center.Z, radius)
	if err != nil {
		return nil, fmt.Errorf("studies near (%g, %g, %g): %w", center.X, center.Y, center.Z, err)
	}
	return set, nil
}

// Diagnostics reports corpus counts, server version and row samples.
func (s *PostgresStore) Diagnostics(ctx context.Context) (*Diagnostics, error) {
	return s.diagnose(ctx, "postgres", "SELECT version()")
}

// LatestLoadRun returns the most recent corpus load, or nil when the
// corpus has never been loaded.
func (s *PostgresStore) LatestLoadRun(ctx context.Context) (*LoadRun, error) {
	return s.latestLoadRun(ctx)
}

// Migrate brings the corpus schema up to date.
func (s *PostgresStore) Migrate() error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return Migrate(s.DB, "postgres", s.schema)
}

// MigrateDown rolls back the most recent migration.
func (s *PostgresStore) MigrateDown() error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return MigrateDown(s.DB, "postgres", s.schema)
}

// MigrationVersion returns the current schema version.
func (s *PostgresStore) MigrationVersion() (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	return MigrationVersion(s.DB, "postgres", s.schema)
}

// BeginLoad clears the corpus tables ahead of a full load.
func (s *PostgresStore) BeginLoad(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	query := fmt.Sprintf("TRUNCATE %s, %s, %s",
		s.table("annotations_terms"), s.table("coordinates"), s.table("metadata"))
	if _, err := s.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate corpus tables: %w", err)
	}
	return nil
}

// InsertStudies bulk-loads study metadata rows using COPY FROM STDIN.
func (s *PostgresStore) InsertStudies(ctx context.Context, studies []Study) error {
	return s.copyFrom(ctx, "metadata",
		[]string{"study_id", "title", "authors", "journal", "year", "space"},
		func(w *csv.Writer) error {
			for _, st := range studies {
				rec := []string{
					strconv.FormatInt(st.ID, 10),
					st.Title, st.Authors, st.Journal,
					strconv.Itoa(st.Year), st.Space,
				}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
}

// InsertAnnotations bulk-loads term annotation rows using COPY FROM STDIN.
func (s *PostgresStore) InsertAnnotations(ctx context.Context, anns []Annotation) error {
	return s.copyFrom(ctx, "annotations_terms",
		[]string{"study_id", "contrast_id", "term", "weight"},
		func(w *csv.Writer) error {
			for _, a := range anns {
				rec := []string{
					strconv.FormatInt(a.StudyID, 10),
					a.ContrastID, a.Term,
					strconv.FormatFloat(a.Weight, 'g', -1, 64),
				}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
}

// InsertCoordinates bulk-loads activation coordinate rows using COPY FROM STDIN.
func (s *PostgresStore) InsertCoordinates(ctx context.Context, points []StudyPoint) error {
	return s.copyFrom(ctx, "coordinates",
		[]string{"study_id", "x", "y", "z"},
		func(w *csv.Writer) error {
			for _, p := range points {
				rec := []string{
					strconv.FormatInt(p.StudyID, 10),
					strconv.FormatFloat(p.X, 'g', -1, 64),
					strconv.FormatFloat(p.Y, 'g', -1, 64),
					strconv.FormatFloat(p.Z, 'g', -1, 64),
				}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
}

// EndLoad records the completed load run.
func (s *PostgresStore) EndLoad(ctx context.Context, run LoadRun) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (id, source, studies, annotations, coordinates, started_at, duration_ms) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		s.table("corpus_loads"))
	_, err := s.DB.ExecContext(ctx, query,
		run.ID, run.Source, run.Studies, run.Annotations, run.Coordinates,
		run.StartedAt, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record load run: %w", err)
	}
	return nil
}

// copyFrom streams rows into a table with PostgreSQL COPY. The encode
// callback writes one CSV record per row.
func (s *PostgresStore) copyFrom(ctx context.Context, table string, columns []string, encode func(w *csv.Writer) error) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Use raw connection for COPY
	return conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()

		var buf strings.Builder
		w := csv.NewWriter(&buf)
		if err := encode(w); err != nil {
			return fmt.Errorf("failed to encode rows: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("failed to flush rows: %w", err)
		}

		copySQL := fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv)",
			s.table(table), strings.Join(columns, ", "))
		_, err := pgxConn.PgConn().CopyFrom(ctx, strings.NewReader(buf.String()), copySQL)
		if err != nil {
			return fmt.Errorf("failed to copy into %s: %w", table, err)
		}
		return nil
	})
}

// Ensure PostgresStore implements the Store interface
var _ Store = (*PostgresStore)(nil)
