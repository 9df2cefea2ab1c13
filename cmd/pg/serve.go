package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/peoplegraph/peoplegraph/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr     string
	serveWatch    bool
	servePrefetch bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the graph when the data file changes")
	serveCmd.Flags().BoolVar(&servePrefetch, "prefetch", true, "Warm the avatar cache in the background on start")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive graph page",
	Long: `Serve the force-layout graph page and its JSON API.

Routes:
  GET  /                       graph page
  GET  /static/data.json       the loaded document
  GET  /api/graph              renderer copy of the graph
  GET  /api/highlight/{id}     highlighted edge indices for a node
  POST /api/select             apply a selection event
  GET  /api/nodes/{id}         node details and ego network
  GET  /api/search?q=          name search
  GET  /avatars/{id}           cached avatar image
  GET  /health, /metrics

Examples:
  pg serve --data static/data.json
  pg serve --addr :3000 --watch`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}

	logger := mustNewLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := mustOpenDatabase(cfg)
	defer db.Close()

	cache := newAvatarCache(cfg, logger)
	srv := server.New(cfg,
		server.WithLogger(logger),
		server.WithAvatars(cache),
		server.WithIndex(db),
	)

	if err := srv.Load(ctx); err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if servePrefetch {
		cache.Warm(ctx, srv.Graph().Nodes, cfg.AvatarConcurrency)
	}

	if serveWatch {
		if err := srv.WatchData(ctx); err != nil {
			exitWithError(ExitError, "watching data: %v", err)
		}
		logger.Info("watching data file", zap.String("path", cfg.DataPath))
	}

	return srv.Run(ctx, cfg.ListenAddr)
}
