package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/voxelabs/studymap/internal/cli/output"
	"github.com/voxelabs/studymap/internal/store"
)

// statusOutput is the JSON shape of the status command.
type statusOutput struct {
	Store    storeStatus    `json:"store"`
	Corpus   corpusStatus   `json:"corpus"`
	LastLoad *store.LoadRun `json:"last_load,omitempty"`
}

type storeStatus struct {
	Type    string `json:"type"`
	Version string `json:"version"`
}

type corpusStatus struct {
	Studies     int64 `json:"studies"`
	Annotations int64 `json:"annotations"`
	Coordinates int64 `json:"coordinates"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show corpus counts and the latest load",
		Long: `Show row counts per corpus table, the store backend version and the
most recent recorded corpus load.

Output adapts to environment:
  - Terminal: Styled table output
  - Piped/Scripted: Markdown format

Use --output to override: auto, text, markdown, json`,
		Example: `  # Show corpus status for the configured store
  studymap status

  # Inspect a SQLite corpus as JSON
  studymap status --store sqlite --db-path studies.db -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}

	return cmd
}

func runStatus(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)
	cfg, logger, r := cc.Cfg, cc.Logger, cc.Renderer

	ctx := cmd.Context()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	diag, err := st.Diagnostics(ctx)
	if err != nil {
		return fmt.Errorf("failed to read corpus diagnostics: %w", err)
	}

	lastRun, err := st.LatestLoadRun(ctx)
	if err != nil {
		return fmt.Errorf("failed to read load history: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(statusOutput{
			Store:    storeStatus{Type: diag.Dialect, Version: diag.Version},
			Corpus:   corpusStatus{Studies: diag.Studies, Annotations: diag.Annotations, Coordinates: diag.Coordinates},
			LastLoad: lastRun,
		})
	case output.ModeMarkdown:
		return statusMarkdown(r, diag, lastRun)
	default:
		return statusText(r, diag, lastRun)
	}
}

// statusText outputs corpus status in styled text format.
func statusText(r *output.Renderer, diag *store.Diagnostics, lastRun *store.LoadRun) error {
	r.Header(1, "Corpus Status")
	r.Println("")

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Rows"})
	t.AppendRow(table.Row{"metadata", diag.Studies})
	t.AppendRow(table.Row{"annotations_terms", diag.Annotations})
	t.AppendRow(table.Row{"coordinates", diag.Coordinates})
	t.Render()

	r.Println("")
	r.Printf("Backend: %s %s\n", diag.Dialect, diag.Version)

	if lastRun == nil {
		r.Muted("No corpus load recorded")
		return nil
	}
	r.Printf("Last load: %s from %s (%s)\n",
		lastRun.StartedAt.Format(time.RFC3339), lastRun.Source, lastRun.Duration.Round(time.Millisecond))
	return nil
}

// statusMarkdown outputs corpus status in markdown format.
func statusMarkdown(r *output.Renderer, diag *store.Diagnostics, lastRun *store.LoadRun) error {
	r.Println(output.FormatHeader(1, "Corpus Status"))
	r.Println("")

	r.Println(output.FormatKeyValue("Backend", fmt.Sprintf("%s %s", diag.Dialect, diag.Version)))
	r.Println(output.FormatKeyValue("Studies", fmt.Sprintf("%d", diag.Studies)))
	r.Println(output.FormatKeyValue("Annotations", fmt.Sprintf("%d", diag.Annotations)))
	r.Println(output.FormatKeyValue("Coordinates", fmt.Sprintf("%d", diag.Coordinates)))

	if lastRun == nil {
		r.Println("")
		r.Println("No corpus load recorded.")
		return nil
	}

	r.Println("")
	r.Println(output.FormatHeader(2, "Last Load"))
	r.Println("")
	r.Println(output.FormatKeyValue("Run", lastRun.ID))
	r.Println(output.FormatKeyValue("Source", lastRun.Source))
	r.Println(output.FormatKeyValue("Started", lastRun.StartedAt.Format(time.RFC3339)))
	r.Println(output.FormatKeyValue("Duration", lastRun.Duration.Round(time.Millisecond).String()))
	return nil
}
