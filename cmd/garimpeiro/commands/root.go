package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "garimpeiro",
	Short: "Marketplace deal miner",
	Long: `Garimpeiro mines Brazilian marketplaces for discounted products.

For every configured niche it searches the enabled marketplaces, scores
the promotions, persists the best ones and exports them to a spreadsheet.
A scheduler runs the mining and social posting flows on cron schedules.

Usage:
  go run ./cmd/garimpeiro [command]

Examples:
  go run ./cmd/garimpeiro mine
  go run ./cmd/garimpeiro mine --niche "itens de cozinha"
  go run ./cmd/garimpeiro start
  go run ./cmd/garimpeiro api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
