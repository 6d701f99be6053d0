package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxelabs/studymap/internal/cli/output"
	"github.com/voxelabs/studymap/internal/store"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the store schema",
		Long: `Apply or roll back schema migrations for the SQL store backends.

The memory backend has no schema and does not support migrations.`,
		Example: `  # Create or update the corpus tables
  studymap migrate up

  # Roll back the most recent migration
  studymap migrate down

  # Show the current schema version
  studymap migrate status`,
	}

	cmd.AddCommand(newMigrateUpCommand())
	cmd.AddCommand(newMigrateDownCommand())
	cmd.AddCommand(newMigrateStatusCommand())

	return cmd
}

func newMigrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m store.Migrator, r *output.Renderer) error {
				if err := m.Migrate(); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				version, err := m.MigrationVersion()
				if err != nil {
					return err
				}
				r.Success(fmt.Sprintf("Migrations applied (schema version %d)", version))
				return nil
			})
		},
	}
}

func newMigrateDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m store.Migrator, r *output.Renderer) error {
				if err := m.MigrateDown(); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				version, err := m.MigrationVersion()
				if err != nil {
					return err
				}
				r.Success(fmt.Sprintf("Rolled back one migration (schema version %d)", version))
				return nil
			})
		},
	}
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m store.Migrator, r *output.Renderer) error {
				version, err := m.MigrationVersion()
				if err != nil {
					return err
				}
				r.Printf("Schema version: %d\n", version)
				return nil
			})
		},
	}
}

// withMigrator opens the configured store and hands its migration
// surface to fn. Backends without a managed schema are rejected.
func withMigrator(cmd *cobra.Command, fn func(m store.Migrator, r *output.Renderer) error) error {
	cc := NewCommandContext(cmd)

	st, err := openStore(cmd.Context(), cc.Cfg, cc.Logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	m, ok := st.(store.Migrator)
	if !ok {
		return fmt.Errorf("store backend %q does not support migrations", cc.Cfg.Store.Type)
	}

	return fn(m, cc.Renderer)
}
