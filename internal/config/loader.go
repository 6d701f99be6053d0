package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Config file tracking
var (
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > studymap.yaml > studymap.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("studymap.yaml"); err == nil {
		return "studymap.yaml"
	}
	if _, err := os.Stat("studymap.yml"); err == nil {
		return "studymap.yml"
	}
	return ""
}

// configExistsIn checks if a studymap config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range []string{"studymap.yaml", "studymap.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a studymap config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root for path resolution.
// Priority:
//  1. Directory of the explicit --config file
//  2. Search upward from CWD for studymap.yaml
//  3. Current working directory
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the loaded config tracking. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// flagKeys maps persistent flag names onto nested config keys. Flags not
// listed here fall back to a kebab-case to snake_case transform.
var flagKeys = map[string]string{
	"store":      "store.type",
	"db-path":    "store.path",
	"database":   "store.database",
	"schema":     "store.schema",
	"manifest":   "corpus.manifest",
	"watch":      "corpus.watch",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile)

	// Track paths that were explicitly provided as flags (relative to
	// CWD, not the project root) and pre-resolve them.
	var flagDBPath, flagManifest string
	if flags != nil {
		if flags.Changed("db-path") {
			if v, _ := flags.GetString("db-path"); v != "" {
				if v != ":memory:" {
					flagDBPath, _ = filepath.Abs(v)
				} else {
					flagDBPath = v
				}
			}
		}
		if flags.Changed("manifest") {
			if v, _ := flags.GetString("manifest"); v != "" {
				flagManifest, _ = filepath.Abs(v)
			}
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"server.host": DefaultServerHost,
		"server.port": DefaultServerPort,
		"store.type":  DefaultStoreType,
		"log.level":   DefaultLogLevel,
		"log.format":  DefaultLogFormat,
		"verbose":     false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	// Search in project root if no explicit config file provided
	if cfgFile == "" {
		for _, name := range []string{"studymap.yaml", "studymap.yml"} {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (STUDYMAP_ prefix)
	// Double underscores nest: STUDYMAP_STORE__PASSWORD -> store.password
	if err := k.Load(env.Provider("STUDYMAP_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "STUDYMAP_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve relative paths against the project root; flag-provided
	// paths were already resolved against CWD.
	if flagDBPath != "" {
		cfg.Store.Path = flagDBPath
	} else if cfg.Store.Path != ":memory:" {
		cfg.Store.Path = resolvePathRelativeTo(cfg.Store.Path, projectRoot)
	}
	if flagManifest != "" {
		cfg.Corpus.Manifest = flagManifest
	} else {
		cfg.Corpus.Manifest = resolvePathRelativeTo(cfg.Corpus.Manifest, projectRoot)
	}

	// Apply defaults based on store type
	cfg.Store.Type = strings.ToLower(cfg.Store.Type)
	ApplyStoreDefaults(&cfg.Store)

	// Expand environment variables in store credentials
	expandStoreEnvVars(&cfg.Store)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandStoreEnvVars expands environment variables in sensitive store fields.
func expandStoreEnvVars(t *StoreConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}
