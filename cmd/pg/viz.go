package main

import (
	"fmt"
	"os"

	"github.com/peoplegraph/peoplegraph/internal/config"
	"github.com/peoplegraph/peoplegraph/internal/graph"
	"github.com/peoplegraph/peoplegraph/internal/viz"
	"github.com/spf13/cobra"
)

var (
	vizOutput    string
	vizSelectURL string
	vizScriptURL string
)

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizSelectURL, "select-url", "", "Post selections to a pg server instead of embedding highlights")
	vizCmd.Flags().StringVar(&vizScriptURL, "script-url", viz.DefaultScriptURL, "force-graph bundle URL")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate a standalone graph page",
	Long: `Generate a self-contained HTML page of the graph.

People are drawn as their avatar, sized by how often they are mentioned;
other nodes are small blue dots. Clicking a person highlights their ego
network; clicking the background clears it. The highlight set of every node
is embedded, so the page needs no server.

Examples:
  # Generate HTML to stdout
  pg viz > graph.html

  # Generate to file
  pg viz --output graph.html`,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	_, g := mustLoadGraph(cmd.Context(), cfg)

	html, err := viz.GenerateHTML(g, remoteAvatar(cfg), staticOptions(cfg))
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return nil
	}

	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		outputHuman("Visualization written to %s\n", vizOutput)
		return nil
	}
	return outputJSON(StatusResponse{Status: "ok", Path: vizOutput})
}

// staticOptions builds page options for a page that loads avatars straight
// from the image host.
func staticOptions(cfg *config.Config) viz.HTMLOptions {
	opts := viz.DefaultOptions()
	opts.Meta = viz.Meta{
		Title:       cfg.Title,
		Description: cfg.Description,
		ImageURL:    cfg.SocialImageURL,
		SiteName:    cfg.SiteName,
	}
	opts.PinnedNode = cfg.PinnedNode
	opts.PlaceholderURL = cfg.PlaceholderURL()
	opts.SelectURL = vizSelectURL
	opts.ScriptURL = vizScriptURL
	return opts
}

// remoteAvatar points person nodes with a secondary image key at the image
// host.
func remoteAvatar(cfg *config.Config) viz.AvatarFunc {
	return func(n *graph.Node) string {
		if n.SID == "" {
			return ""
		}
		return cfg.AvatarURL(n.SID)
	}
}
