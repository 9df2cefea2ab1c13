package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the SQLite query cache from the graph document",
	Long: `Rebuild the SQLite query cache (nodes, links and the name search index)
from the graph document. The document stays the source of truth; the cache
can be deleted at any time.`,
	RunE: runIndex,
}

// IndexResult is the response for the index command.
type IndexResult struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Nodes  int    `json:"nodes"`
	Links  int    `json:"links"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	doc := mustLoadDocument(cmd.Context(), cfg)

	db := mustOpenDatabase(cfg)
	defer db.Close()

	nodes, links, err := db.RebuildFromDocument(doc)
	if err != nil {
		exitWithError(ExitError, "rebuilding index: %v", err)
	}

	if humanOutput {
		outputHuman("Indexed %d nodes and %d links into %s\n", nodes, links, cfg.DBPath)
		return nil
	}
	return outputJSON(IndexResult{Status: "ok", Path: cfg.DBPath, Nodes: nodes, Links: links})
}
