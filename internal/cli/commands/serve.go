package commands

import (
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxelabs/studymap/internal/api"
	"github.com/voxelabs/studymap/internal/config"
	"github.com/voxelabs/studymap/internal/corpus"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Listen string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the studymap HTTP service",
		Long: `Start the HTTP service answering term and location queries.

The service reads its corpus from the configured store backend. The
in-process memory backend starts empty, so with a corpus manifest
configured it loads the corpus before listening; with --watch the
corpus reloads whenever the manifest or its TSV files change.

The service shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  # Serve the configured store on the configured address
  studymap serve

  # Serve an in-process corpus, reloading on file changes
  studymap serve --store memory --manifest corpus.yaml --watch

  # Bind another address
  studymap serve --listen 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Listen address as host:port (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	host := cfg.Server.Host
	port := cfg.Server.Port
	if opts.Listen != "" {
		h, p, err := net.SplitHostPort(opts.Listen)
		if err != nil {
			return fmt.Errorf("invalid listen address %q: %w", opts.Listen, err)
		}
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid listen port %q", p)
		}
		host = h
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	eng, err := newEngine(st, logger)
	if err != nil {
		return err
	}

	var watcher *corpus.Watcher
	if cfg.Corpus.Manifest != "" {
		loader := corpus.New(st, logger)

		// The memory backend holds nothing across restarts.
		if strings.EqualFold(cfg.Store.Type, "memory") {
			manifest, err := corpus.LoadManifest(cfg.Corpus.Manifest)
			if err != nil {
				return err
			}
			if _, err := loader.Load(ctx, manifest); err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}
		}

		if cfg.Corpus.Watch {
			watcher = corpus.NewWatcher(loader, cfg.Corpus.Manifest, logger)
		}
	} else if cfg.Corpus.Watch {
		logger.Warn("corpus watch enabled without a manifest, ignoring")
	}

	server := api.NewServer(api.Config{
		Engine:  eng,
		Store:   st,
		Watcher: watcher,
		Host:    host,
		Port:    port,
		Version: cmd.Root().Version,
		Logger:  logger,
	})

	return server.Serve(ctx)
}
