// Package config provides configuration management for studymap.
//
// Configuration is loaded from studymap.yaml, STUDYMAP_* environment
// variables and command-line flags, with flags taking the highest
// precedence. Credentials in the store section may reference
// environment variables with ${VAR} syntax.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/voxelabs/studymap/internal/store"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig holds study store configuration.
type StoreConfig struct {
	Type string `koanf:"type"` // postgres, sqlite, memory

	// File-based backends (SQLite)
	Path string `koanf:"path"` // file path or :memory:

	// Network backends
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Common
	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// QueryTimeout bounds individual store lookups (zero disables)
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// ToStoreConfig converts the section into the store package's config.
func (t *StoreConfig) ToStoreConfig() store.Config {
	return store.Config{
		Type:         strings.ToLower(t.Type),
		Path:         t.Path,
		Host:         t.Host,
		Port:         t.Port,
		Database:     t.Database,
		Schema:       t.Schema,
		Username:     t.User,
		Password:     t.Password,
		Options:      t.Options,
		QueryTimeout: t.QueryTimeout,
	}
}

// CorpusConfig holds corpus loading configuration.
type CorpusConfig struct {
	Manifest string `koanf:"manifest"` // path to the corpus manifest
	Watch    bool   `koanf:"watch"`    // reload on manifest or data changes
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// Config holds all studymap configuration options.
type Config struct {
	Server       ServerConfig `koanf:"server"`
	Store        StoreConfig  `koanf:"store"`
	Corpus       CorpusConfig `koanf:"corpus"`
	Log          LogConfig    `koanf:"log"`
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
}
