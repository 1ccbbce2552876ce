package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"garimpeiro/internal/api"
	"garimpeiro/internal/api/handlers"
)

var apiPort string

// apiCmd starts the read-only HTTP API server
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the read-only REST API over mined products.

Endpoints:
  GET /health                        - Health check
  GET /api/v1/niches                 - Distinct niches in the store
  GET /api/v1/products?niche=...     - Products for a niche, by score
  GET /api/v1/products/{id}          - Single product
  GET /api/v1/products/{id}/history  - Price observations for a product

Example:
  go run ./cmd/garimpeiro api
  go run ./cmd/garimpeiro api --port 8080`,
	RunE: runAPIServer,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from API_PORT)")
}

func buildAPIServer(app *app) *api.Server {
	productsHandler := handlers.NewProductsHandler(app.products, app.history, app.log)
	router := api.NewRouter(productsHandler, app.log)
	return api.New(app.cfg, app.log, router)
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if apiPort != "" {
		app.cfg.APIPort = apiPort
	}

	server := buildAPIServer(app)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	return nil
}
