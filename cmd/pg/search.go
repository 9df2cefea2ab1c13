package main

import (
	"fmt"
	"strings"

	"github.com/peoplegraph/peoplegraph/internal/document"
	"github.com/peoplegraph/peoplegraph/internal/storage"
	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultSearchLimit, "Maximum results")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search nodes by name",
	Long: `Search node names and ids with prefix matching, most mentioned first.
A query that is exactly a node id lists that node first.

The SQLite query cache is built from the document on first use; run
'pg index' after the document changes.

Examples:
  pg search walker
  pg search "andrew hub" --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// SearchResult is one search hit.
type SearchResult struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Degree int     `json:"degree"`
	Links  []int   `json:"links"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	query := strings.Join(args, " ")

	db := mustOpenDatabase(cfg)
	defer db.Close()

	count, err := db.CountNodes()
	if err != nil {
		exitWithError(ExitError, "reading index: %v", err)
	}
	if count == 0 {
		doc := mustLoadDocument(cmd.Context(), cfg)
		if _, _, err := db.RebuildFromDocument(doc); err != nil {
			exitWithError(ExitError, "rebuilding index: %v", err)
		}
	}

	results, err := buildSearchResults(db, query, searchLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if !humanOutput {
		return outputJSON(results)
	}

	if len(results) == 0 {
		outputHuman("No matches for %q\n", query)
		return nil
	}
	for i, r := range results {
		outputHuman("%2d. %-*s %-8s value=%-5.0f degree=%d links=%s\n", i+1, NameMaxLen, truncateString(r.Name, NameMaxLen), r.Type, r.Value, r.Degree, formatIndices(r.Links))
	}
	return nil
}

// buildSearchResults runs query against the cache. An exact id match comes
// first, then name matches; at most limit results in total.
func buildSearchResults(db *storage.DB, query string, limit int) ([]SearchResult, error) {
	var found []document.Node
	exact, err := db.GetNode(query)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", query, err)
	}
	if exact != nil {
		found = append(found, *exact)
	}

	matches, err := db.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	for _, n := range matches {
		if exact == nil || n.ID != exact.ID {
			found = append(found, n)
		}
	}
	if len(found) > limit {
		found = found[:limit]
	}

	results := make([]SearchResult, 0, len(found))
	for _, n := range found {
		degree, err := db.Degree(n.ID)
		if err != nil {
			return nil, err
		}
		links, err := db.LinkIndices(n.ID)
		if err != nil {
			return nil, err
		}
		if links == nil {
			links = []int{}
		}
		results = append(results, SearchResult{ID: n.ID, Name: n.Name, Type: n.Type, Value: n.Value, Degree: degree, Links: links})
	}
	return results, nil
}
