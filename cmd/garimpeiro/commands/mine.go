package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"garimpeiro/internal/pipeline"
)

var mineNiche string

// mineCmd runs one mining pass immediately
var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Run one mining pass now",
	Long: `Runs the full mining pipeline once, outside of the schedule.

For every configured niche: search the enabled marketplaces, score and
rank the promotions, persist the top products and export them to the
spreadsheet. Use --niche to mine a single niche.

Example:
  go run ./cmd/garimpeiro mine
  go run ./cmd/garimpeiro mine --niche "maquiagem artística"`,
	RunE: runMine,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringVar(&mineNiche, "niche", "", "mine a single niche instead of all configured ones")
}

func runMine(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext()
	defer cancel()

	var stats pipeline.RunStats
	if mineNiche != "" {
		stats = app.miner.RunNiche(ctx, mineNiche)
	} else {
		stats = app.miner.Run(ctx)
	}

	fmt.Printf("Mining pass finished: %d ingested, %d skipped, %d export errors (%s)\n",
		stats.Ingested, stats.Skipped, stats.ExportErrors, stats.Duration)

	return ctx.Err()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
