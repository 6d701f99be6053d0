package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFlags mirrors the persistent flags registered by the CLI root.
func newTestFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("store", "", "")
	f.String("db-path", "", "")
	f.String("database", "", "")
	f.String("schema", "", "")
	f.String("manifest", "", "")
	f.Bool("watch", false, "")
	f.String("log-level", "", "")
	f.String("log-format", "", "")
	f.BoolP("verbose", "v", false, "")
	f.StringP("output", "o", "", "")
	return f
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "studymap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr string
	}{
		{
			name:      "empty type",
			cfg:       Config{Server: ServerConfig{Port: 8000}},
			wantErr:   true,
			errSubstr: "store type is required",
		},
		{
			name: "valid postgres",
			cfg:  Config{Store: StoreConfig{Type: "postgres"}, Server: ServerConfig{Port: 8000}},
		},
		{
			name: "valid sqlite",
			cfg:  Config{Store: StoreConfig{Type: "sqlite"}, Server: ServerConfig{Port: 8000}},
		},
		{
			name: "valid memory",
			cfg:  Config{Store: StoreConfig{Type: "memory"}, Server: ServerConfig{Port: 8000}},
		},
		{
			name:      "unknown type mysql",
			cfg:       Config{Store: StoreConfig{Type: "mysql"}, Server: ServerConfig{Port: 8000}},
			wantErr:   true,
			errSubstr: "unknown store type",
		},
		{
			name:      "port out of range",
			cfg:       Config{Store: StoreConfig{Type: "sqlite"}, Server: ServerConfig{Port: 70000}},
			wantErr:   true,
			errSubstr: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err, "expected error but got nil")
				if tt.errSubstr != "" {
					assert.Contains(t, err.Error(), tt.errSubstr)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Validation errors for unknown backends list the available ones and
// point at the config file.
func TestConfig_Validate_ErrorContainsAvailable(t *testing.T) {
	cfg := Config{Store: StoreConfig{Type: "invalid_db"}, Server: ServerConfig{Port: 8000}}
	err := cfg.Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "postgres", "error should list available backends")
	assert.Contains(t, err.Error(), "studymap.yaml", "error should mention config file")
}

func TestDefaultSchemaForType(t *testing.T) {
	tests := []struct {
		storeType string
		expected  string
	}{
		{"postgres", "ns"},
		{"sqlite", ""},
		{"memory", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.storeType, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultSchemaForType(tt.storeType))
		})
	}
}

func TestApplyStoreDefaults(t *testing.T) {
	t.Run("postgres network defaults", func(t *testing.T) {
		s := &StoreConfig{Type: "postgres"}
		ApplyStoreDefaults(s)
		assert.Equal(t, "localhost", s.Host)
		assert.Equal(t, 5432, s.Port)
		assert.Equal(t, "neurostore", s.Database)
		assert.Equal(t, "ns", s.Schema)
	})

	t.Run("sqlite defaults to in-memory", func(t *testing.T) {
		s := &StoreConfig{Type: "sqlite"}
		ApplyStoreDefaults(s)
		assert.Equal(t, ":memory:", s.Path)
	})

	t.Run("preserves explicit values", func(t *testing.T) {
		s := &StoreConfig{Type: "postgres", Host: "db.internal", Port: 6432, Schema: "corpus"}
		ApplyStoreDefaults(s)
		assert.Equal(t, "db.internal", s.Host)
		assert.Equal(t, 6432, s.Port)
		assert.Equal(t, "corpus", s.Schema)
	})
}

func TestExpandEnvVars(t *testing.T) {
	require.NoError(t, os.Setenv("TEST_VAR_ONE", "value_one"))
	require.NoError(t, os.Setenv("TEST_VAR_TWO", "value_two"))
	defer func() {
		_ = os.Unsetenv("TEST_VAR_ONE")
		_ = os.Unsetenv("TEST_VAR_TWO")
	}()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"multiple variables", "${TEST_VAR_ONE}/${TEST_VAR_TWO}", "value_one/value_two"},
		{"variable in path", "/path/to/${TEST_VAR_ONE}/file", "/path/to/value_one/file"},
		{"unset variable stays as-is", "${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"no variables", "plain string", "plain string"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.Equal(t, "ns", cfg.Store.Schema)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, `server:
  host: 127.0.0.1
  port: 8125
store:
  type: sqlite
  path: corpus.db
  query_timeout: 5s
corpus:
  manifest: data/corpus.yaml
  watch: true
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8125, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, filepath.Join(dir, "corpus.db"), cfg.Store.Path, "store path resolves against the config dir")
	assert.Equal(t, 5*time.Second, cfg.Store.QueryTimeout)
	assert.Equal(t, filepath.Join(dir, "data", "corpus.yaml"), cfg.Corpus.Manifest)
	assert.True(t, cfg.Corpus.Watch)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "store:\n  type: postgres\n")

	require.NoError(t, os.Setenv("STUDYMAP_STORE__TYPE", "sqlite"))
	require.NoError(t, os.Setenv("STUDYMAP_SERVER__PORT", "9000"))
	defer func() {
		_ = os.Unsetenv("STUDYMAP_STORE__TYPE")
		_ = os.Unsetenv("STUDYMAP_SERVER__PORT")
	}()

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Type, "env var overrides config file")
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "store:\n  type: postgres\nlog:\n  level: warn\n")

	flags := newTestFlags()
	require.NoError(t, flags.Set("store", "memory"))
	require.NoError(t, flags.Set("log-level", "debug"))
	require.NoError(t, flags.Set("watch", "true"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Type, "flag overrides config file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Corpus.Watch)
}

func TestLoadConfig_UnchangedFlagsIgnored(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "store:\n  type: sqlite\n")

	// Registered but never set; zero values must not clobber the file.
	cfg, err := LoadConfig(path, newTestFlags())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Type)
}

func TestLoadConfig_FlagPathResolvedAgainstCWD(t *testing.T) {
	ResetConfig()
	cwd := t.TempDir()
	t.Chdir(cwd)
	dir := t.TempDir()
	path := writeConfig(t, dir, "store:\n  type: sqlite\n")

	flags := newTestFlags()
	require.NoError(t, flags.Set("db-path", "local.db"))
	require.NoError(t, flags.Set("manifest", "corpus.yaml"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cwd, "local.db"), cfg.Store.Path)
	assert.Equal(t, filepath.Join(cwd, "corpus.yaml"), cfg.Corpus.Manifest)
}

func TestLoadConfig_MemoryPathKept(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "store:\n  type: sqlite\n")

	flags := newTestFlags()
	require.NoError(t, flags.Set("db-path", ":memory:"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Store.Path, ":memory: is not a filesystem path")
}

func TestLoadConfig_CredentialExpansion(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, `store:
  type: postgres
  user: svc
  password: ${STUDYMAP_TEST_SECRET}
`)

	require.NoError(t, os.Setenv("STUDYMAP_TEST_SECRET", "hunter2"))
	defer func() { _ = os.Unsetenv("STUDYMAP_TEST_SECRET") }()

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Store.Password)
}

func TestLoadConfig_UnknownStoreType(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "store:\n  type: mysql\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store type")
	assert.Contains(t, err.Error(), "mysql")
}

func TestToStoreConfig(t *testing.T) {
	sc := StoreConfig{
		Type:         "Postgres",
		Host:         "db.internal",
		Port:         5432,
		Database:     "neurostore",
		Schema:       "ns",
		User:         "svc",
		Password:     "secret",
		Options:      map[string]string{"sslmode": "require"},
		QueryTimeout: 2 * time.Second,
	}

	got := sc.ToStoreConfig()
	assert.Equal(t, "postgres", got.Type, "type is lowercased")
	assert.Equal(t, "db.internal", got.Host)
	assert.Equal(t, "svc", got.Username)
	assert.Equal(t, "secret", got.Password)
	assert.Equal(t, "require", got.Options["sslmode"])
	assert.Equal(t, 2*time.Second, got.QueryTimeout)
}
