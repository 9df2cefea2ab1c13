package main

import (
	"github.com/peoplegraph/peoplegraph/internal/avatar"
	"github.com/peoplegraph/peoplegraph/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var avatarsConcurrency int

func init() {
	avatarsCmd.Flags().IntVar(&avatarsConcurrency, "concurrency", 0, "Parallel fetches (default: avatar_concurrency from config)")
	rootCmd.AddCommand(avatarsCmd)
}

var avatarsCmd = &cobra.Command{
	Use:   "avatars",
	Short: "Fetch every person's avatar and report the failures",
	Long: `Fetch the avatar of every person node through the rate-limited image
client and report how many loaded, how many fell back to the placeholder,
and which people have no image at all.`,
	RunE: runAvatars,
}

// AvatarsResult is the response for the avatars command.
type AvatarsResult struct {
	Status string `json:"status"`
	avatar.Report
}

func runAvatars(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if avatarsConcurrency > 0 {
		cfg.AvatarConcurrency = avatarsConcurrency
	}
	_, g := mustLoadGraph(cmd.Context(), cfg)

	logger := mustNewLogger(cfg)
	defer func() { _ = logger.Sync() }()

	report := newAvatarCache(cfg, logger).Prefetch(cmd.Context(), g.Nodes, cfg.AvatarConcurrency)

	if !humanOutput {
		return outputJSON(AvatarsResult{Status: "ok", Report: report})
	}

	outputHuman("Loaded:      %s\n", Good.Sprint(report.Loaded))
	outputHuman("Placeholder: %s\n", Warn.Sprint(report.Placeholder))
	outputHuman("Missing:     %s\n", Bad.Sprint(len(report.Missing)))
	for _, id := range report.Missing {
		outputHuman("  %s\n", Subtle.Sprint(id))
	}
	return nil
}

// newAvatarCache builds the avatar cache from config.
func newAvatarCache(cfg *config.Config, logger *zap.Logger) *avatar.Cache {
	fetcher := avatar.NewFetcher(
		avatar.WithRateLimit(cfg.AvatarRateLimit),
		avatar.WithTimeout(cfg.AvatarTimeout),
	)
	return avatar.NewCache(fetcher, cfg.AvatarURL, cfg.PlaceholderURL(), logger)
}
