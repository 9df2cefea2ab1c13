package main

import (
	"github.com/peoplegraph/peoplegraph/internal/graph"
	"github.com/peoplegraph/peoplegraph/internal/selection"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(highlightCmd)
}

var highlightCmd = &cobra.Command{
	Use:   "highlight <node-id>",
	Short: "Show the edges highlighted when a node is selected",
	Long: `Show the ego network of a node: every edge touching it and every edge
touching one of its neighbours, by edge index.

An unknown node id selects nothing and yields an empty set. Selecting the
pinned node is ignored, as it is on the page.

Examples:
  pg highlight "matthew walker"
  pg highlight "matthew walker" --human`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

// HighlightEdge is one highlighted edge.
type HighlightEdge struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// HighlightResult is the response for the highlight command.
type HighlightResult struct {
	Active    string          `json:"active"`
	Neighbors []string        `json:"neighbors"`
	Highlight []int           `json:"highlight"`
	Edges     []HighlightEdge `json:"edges"`
}

func runHighlight(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	_, g := mustLoadGraph(cmd.Context(), cfg)

	result := buildHighlightResult(g, selection.Rules{PinnedNodeID: cfg.PinnedNode}, args[0])

	if !humanOutput {
		return outputJSON(result)
	}

	if result.Active == "" {
		outputHuman("No selection (%q is unknown or pinned)\n", args[0])
		return nil
	}
	n := g.Node(result.Active)
	outputHuman("%s (%s, size %.0f)\n", n.Name, n.Kind, n.Size())
	outputHuman("Neighbors: %d\n", len(result.Neighbors))
	for _, id := range result.Neighbors {
		outputHuman("  %s\n", id)
	}
	outputHuman("Highlighted edges: %s\n", formatIndices(result.Highlight))
	for _, e := range result.Edges {
		outputHuman("  [%d] %s -- %s\n", e.Index, e.Source, e.Target)
	}
	return nil
}

// buildHighlightResult selects id from an empty selection and reports the
// resulting ego network.
func buildHighlightResult(g *graph.Graph, rules selection.Rules, id string) HighlightResult {
	ctrl := selection.NewController(g, rules, selection.State{})
	state, set := ctrl.Dispatch(selection.Event{Kind: selection.NodeEvent, NodeID: id})

	result := HighlightResult{
		Neighbors: []string{},
		Highlight: set.Sorted(),
		Edges:     []HighlightEdge{},
	}
	if g.Node(state.ActiveNodeID) == nil {
		return result
	}

	result.Active = state.ActiveNodeID
	if neighbors := g.Neighbors(state.ActiveNodeID); neighbors != nil {
		result.Neighbors = neighbors
	}
	for _, i := range result.Highlight {
		e := g.Edges[i]
		result.Edges = append(result.Edges, HighlightEdge{Index: e.Index, Source: e.SourceID, Target: e.TargetID})
	}
	return result
}
