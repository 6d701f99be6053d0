package config

// Default configuration values.
const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8000
	DefaultStoreType  = "postgres"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultSchemaForType returns the default schema for a store type.
// Only PostgreSQL namespaces the corpus tables.
func DefaultSchemaForType(storeType string) string {
	if storeType == "postgres" {
		return "ns"
	}
	return ""
}

// ApplyStoreDefaults applies default values to a StoreConfig based on
// the backend type.
func ApplyStoreDefaults(t *StoreConfig) {
	if t == nil {
		return
	}

	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	switch t.Type {
	case "postgres":
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 5432
		}
		if t.Database == "" {
			t.Database = "neurostore"
		}
	case "sqlite":
		if t.Path == "" {
			t.Path = ":memory:"
		}
	}
}
