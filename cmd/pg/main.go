// Package main provides the pg CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/peoplegraph/peoplegraph/internal/config"
	"github.com/peoplegraph/peoplegraph/internal/document"
	"github.com/peoplegraph/peoplegraph/internal/graph"
	"github.com/peoplegraph/peoplegraph/internal/logging"
	"github.com/peoplegraph/peoplegraph/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	dataPath    string
	configPath  string
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// SilenceErrors is set, so cobra errors (like missing args) are printed here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pg",
	Short: "People knowledge graph viewer",
	Long: `pg serves and inspects a people knowledge graph: every person (and
topic) mentioned across a body of documents, linked by co-mention.

Selecting a node highlights its ego network: every edge touching the node and
every edge touching one of its neighbours.

The graph document is a JSON file or URL with "nodes" and "links".
All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Graph document path or URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/peoplegraph/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration and applies flag overrides, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if dataPath != "" {
		cfg.DataPath = config.ExpandTilde(dataPath)
	}
	return cfg
}

// mustLoadDocument reads and validates the graph document, exits on error.
func mustLoadDocument(ctx context.Context, cfg *config.Config) *document.Document {
	doc, err := document.Load(ctx, cfg.DataPath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	return doc
}

// mustLoadGraph loads the document and builds its index, exits on error.
func mustLoadGraph(ctx context.Context, cfg *config.Config) (*document.Document, *graph.Graph) {
	doc := mustLoadDocument(ctx, cfg)
	return doc, graph.FromDocument(doc)
}

// mustOpenDatabase opens the SQLite query cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(cfg *config.Config) *storage.DB {
	db, err := storage.OpenDB(cfg.DBPath)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustNewLogger builds the logger for long-running commands. --human selects
// console output.
func mustNewLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(cfg.LogLevel, humanOutput)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return logger
}
