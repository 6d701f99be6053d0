package store

import (
	"bytes"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// schemaPlaceholder marks where the configured schema name goes in the
// postgres migration SQL. The sqlite migrations carry no placeholder.
const schemaPlaceholder = "{{schema}}"

// Migrator is implemented by backends with a managed schema. The memory
// backend has no schema and does not implement it.
type Migrator interface {
	Migrate() error
	MigrateDown() error
	MigrationVersion() (int64, error)
}

func setupGoose(dialect, schema string) (dir string, err error) {
	goose.SetBaseFS(schemaFS{base: migrations, schema: schema})
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("failed to set dialect: %w", err)
	}
	return "migrations/" + dialect, nil
}

// Migrate runs all pending migrations for the given dialect against db.
// For dialects with schema-qualified tables, schema is substituted into
// the migration SQL so the tables land where the queries look.
func Migrate(db *sql.DB, dialect, schema string) error {
	dir, err := setupGoose(dialect, schema)
	if err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(db *sql.DB, dialect, schema string) error {
	dir, err := setupGoose(dialect, schema)
	if err != nil {
		return err
	}
	if err := goose.Down(db, dir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// MigrationVersion returns the current migration version.
func MigrationVersion(db *sql.DB, dialect, schema string) (int64, error) {
	if _, err := setupGoose(dialect, schema); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

// schemaFS serves the embedded migrations with the schema placeholder
// resolved to the configured schema name, so one migration set works for
// any store.schema. Directories and non-SQL files pass through untouched.
type schemaFS struct {
	base   fs.FS
	schema string
}

func (s schemaFS) Open(name string) (fs.File, error) {
	f, err := s.base.Open(name)
	if err != nil {
		return nil, err
	}
	if s.schema == "" || !strings.HasSuffix(name, ".sql") {
		return f, nil
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	raw, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return nil, err
	}

	data := bytes.ReplaceAll(raw, []byte(schemaPlaceholder), []byte(s.schema))
	return &templatedFile{
		reader: bytes.NewReader(data),
		info:   templatedInfo{FileInfo: info, size: int64(len(data))},
	}, nil
}

type templatedFile struct {
	reader *bytes.Reader
	info   templatedInfo
}

func (f *templatedFile) Read(p []byte) (int, error) { return f.reader.Read(p) }
func (f *templatedFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *templatedFile) Close() error               { return nil }

// templatedInfo reports the size of the substituted content; everything
// else defers to the embedded file's info.
type templatedInfo struct {
	fs.FileInfo
	size int64
}

func (i templatedInfo) Size() int64 { return i.size }
