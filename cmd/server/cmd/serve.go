package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kabumemo/kabumemo/internal/di"
	"github.com/kabumemo/kabumemo/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background scheduler",
	Long: `Start the HTTP API on PORT, serve the frontend from KABUMEMO_DIST_DIR when set,
and run scheduled jobs (quote refresh, cache cleanup, mirror maintenance).

Seeds the default funding groups and synchronizes the SQLite mirror from the
JSON files before accepting requests.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting kabumemo")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		return fmt.Errorf("wire dependencies: %w", err)
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
	})

	container.Scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		container.Scheduler.Stop()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
	return nil
}
