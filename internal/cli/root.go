// Package cli provides the command-line interface for studymap.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelabs/studymap/internal/cli/commands"
	"github.com/voxelabs/studymap/internal/cli/output"
	"github.com/voxelabs/studymap/internal/config"
	"github.com/voxelabs/studymap/internal/store"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "studymap",
		Short: "studymap - Neuroimaging dissociation query service",
		Long: `studymap answers dissociation queries over a corpus of neuroimaging studies.

Given two terms or two brain coordinates, it reports the studies matching
one criterion but not the other, in both directions. The corpus lives in
Postgres, SQLite or an in-process store loaded from TSV files.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cfg.Log, cfg.Verbose)

			// Commands read the loaded config through the config package;
			// only the logger rides on the command context.
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			// Print config file used (if verbose)
			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Neuroimaging dissociation query service
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./studymap.yaml)")
	rootCmd.PersistentFlags().String("store", "", "Store backend (postgres|sqlite|memory)")
	rootCmd.PersistentFlags().String("db-path", "", "Path to the SQLite database (or :memory:)")
	rootCmd.PersistentFlags().String("database", "", "Database name for network backends")
	rootCmd.PersistentFlags().String("schema", "", "Database schema holding the corpus tables")
	rootCmd.PersistentFlags().String("manifest", "", "Path to the corpus manifest")
	rootCmd.PersistentFlags().Bool("watch", false, "Reload the corpus when its files change")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text|json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes(), cobra.ShellCompDirectiveNoFileComp
	})

	// Register completion for store flag
	_ = rootCmd.RegisterFlagCompletionFunc("store", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return store.Backends(), cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewLoadCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for studymap.

To load completions:

Bash:
  $ source <(studymap completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ studymap completion bash > /etc/bash_completion.d/studymap
  # macOS:
  $ studymap completion bash > $(brew --prefix)/etc/bash_completion.d/studymap

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ studymap completion zsh > "${fpath[1]}/_studymap"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ studymap completion fish | source

  # To load completions for each session, execute once:
  $ studymap completion fish > ~/.config/fish/completions/studymap.fish

PowerShell:
  PS> studymap completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> studymap completion powershell > studymap.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
