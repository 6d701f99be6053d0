package config

import (
	"fmt"

	"github.com/voxelabs/studymap/internal/store"
)

// Validate checks if the configuration is valid.
// It uses the store registry to determine which backends are available.
func (c *Config) Validate() error {
	if c.Store.Type == "" {
		return fmt.Errorf("store type is required")
	}

	// Use store registry as single source of truth
	if !store.IsRegistered(c.Store.Type) {
		return &store.UnknownBackendError{
			Type:      c.Store.Type,
			Available: store.Backends(),
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}

	return nil
}
