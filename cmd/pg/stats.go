package main

import (
	"github.com/peoplegraph/peoplegraph/internal/stats"
	"github.com/spf13/cobra"
)

var statsTop int

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", DefaultTopN, "Number of nodes in each ranking")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph statistics",
	Long: `Show node and link counts, dangling links, self-loops, connected
components, and the most connected nodes by degree and by PageRank.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	_, g := mustLoadGraph(cmd.Context(), cfg)

	summary := stats.Compute(g, statsTop)

	if !humanOutput {
		return outputJSON(summary)
	}

	outputHuman("Nodes:       %d (%d people)\n", summary.Nodes, summary.People)
	outputHuman("Links:       %d (%d dangling, %d self-loops)\n", summary.Edges, summary.DanglingEdges, summary.SelfLoops)
	outputHuman("Components:  %d (largest %d, %d isolated)\n", summary.Components, summary.LargestCluster, summary.Isolated)
	printRanking("Top by degree", summary.TopByDegree, "%.0f")
	printRanking("Top by PageRank", summary.TopByPageRank, "%.4f")
	return nil
}

func printRanking(title string, nodes []stats.RankedNode, scoreFormat string) {
	if len(nodes) == 0 {
		return
	}
	outputHuman("\n%s:\n", title)
	for i, n := range nodes {
		outputHuman("%2d. %-*s "+scoreFormat+"\n", i+1, NameMaxLen, truncateString(n.Name, NameMaxLen), n.Score)
	}
}
