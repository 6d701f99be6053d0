package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/voxelabs/studymap/internal/cli/output"
	"github.com/voxelabs/studymap/internal/config"
	"github.com/voxelabs/studymap/internal/dissociate"
	"github.com/voxelabs/studymap/internal/store"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the loaded config, logger and a renderer
// bound to the command's writers.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration. Falls back to defaults
// when no config has been loaded, as when a command runs outside the
// root command's PersistentPreRunE.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cfg := &config.Config{
		Server:       config.ServerConfig{Host: config.DefaultServerHost, Port: config.DefaultServerPort},
		Store:        config.StoreConfig{Type: config.DefaultStoreType},
		Log:          config.LogConfig{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat},
		OutputFormat: config.DefaultOutput,
	}
	config.ApplyStoreDefaults(&cfg.Store)
	return cfg
}

// openStore creates and connects the configured store backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	return store.Open(ctx, cfg.Store.ToStoreConfig(), logger)
}

// newEngine builds the dissociation engine over an open store.
func newEngine(st store.Store, logger *slog.Logger) (*dissociate.Engine, error) {
	return dissociate.New(dissociate.Config{
		Terms:   st,
		Spatial: st,
		Logger:  logger,
	})
}
