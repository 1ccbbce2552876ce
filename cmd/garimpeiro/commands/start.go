package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"garimpeiro/internal/scheduler"
	"garimpeiro/internal/scheduler/jobs"
)

// startCmd starts the scheduler daemon together with the API server
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler daemon and the API server",
	Long: `Starts the scheduler, registers the recurring jobs and serves the
read-only API.

Registered jobs:
- mining: full pipeline pass over all niches (MINING_SCHEDULE)
- social_posting: post top deals to social networks (SOCIAL_SCHEDULE)

Stop with Ctrl+C.`,
	RunE: runStart,
}

// jobsCmd lists the registered jobs
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the registered scheduler jobs",
	RunE:  listJobs,
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(jobsCmd)
}

func buildScheduler(app *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(app.log)

	if err := sched.AddJob(jobs.NewMiningJob(app.miner, app.cfg.Mining, app.log)); err != nil {
		return nil, fmt.Errorf("register mining job: %w", err)
	}
	if err := sched.AddJob(jobs.NewSocialJob(app.flow, app.cfg.Social, app.log)); err != nil {
		return nil, fmt.Errorf("register social job: %w", err)
	}

	return sched, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := buildScheduler(app)
	if err != nil {
		return err
	}

	sched.Start()

	server := buildAPIServer(app)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Println("Scheduler started. Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Printf("API listening on port %s\n", app.cfg.APIPort)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		sched.Stop()
		return err
	case <-quit:
	}

	fmt.Println("Shutting down...")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := buildScheduler(app)
	if err != nil {
		return err
	}

	fmt.Println("Registered jobs:")
	for jobName, stat := range sched.GetJobStats() {
		fmt.Printf("  - %s (schedule: %s)\n", jobName, stat.Schedule)
	}

	return nil
}
