package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// socialCmd runs one social posting pass immediately
var socialCmd = &cobra.Command{
	Use:   "social",
	Short: "Post today's top deals to social networks now",
	Long: `Runs the social posting flow once, outside of the schedule.

Picks today's highest-scored products and posts each to the configured
Instagram and Facebook accounts, feed and story.

Example:
  go run ./cmd/garimpeiro social`,
	RunE: runSocial,
}

func init() {
	rootCmd.AddCommand(socialCmd)
}

func runSocial(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := app.flow.Run(ctx)
	if err != nil {
		return fmt.Errorf("social posting failed: %w", err)
	}

	fmt.Printf("Social posting finished: %d candidates, %d posted, %d failed\n",
		stats.Candidates, stats.Posted, stats.Failed)

	return nil
}
