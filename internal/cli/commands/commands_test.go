// Package commands_test provides tests for CLI command creation.
package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxelabs/studymap/internal/config"
)

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// Verify flags exist (store/manifest/watch are global flags on root)
	assert.NotNil(t, cmd.Flags().Lookup("listen"), "flag %q should exist", "listen")
}

func TestNewLoadCommand(t *testing.T) {
	cmd := NewLoadCommand()

	assert.Equal(t, "load", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// Note: --manifest and --output are global persistent flags on root
}

func TestNewMigrateCommand(t *testing.T) {
	cmd := NewMigrateCommand()

	assert.Equal(t, "migrate", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	subs := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subs[sub.Use] = true
	}
	for _, want := range []string{"up", "down", "status"} {
		assert.True(t, subs[want], "subcommand %q should exist", want)
	}
}

func TestNewStatusCommand(t *testing.T) {
	cmd := NewStatusCommand()

	assert.Equal(t, "status", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestGetConfig_DefaultsWithoutLoad(t *testing.T) {
	config.ResetConfig()
	cfg := getConfig()

	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "ns", cfg.Store.Schema, "postgres default schema should apply")
}
