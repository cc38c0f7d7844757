package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analysis API",
	Long: `Serve the analysis API:

  POST /api/v1/analyze   analyze one conversation
  POST /api/v1/retrieve  nearest guideline excerpts for a query
  GET  /api/v1/status    guideline index and model status
  GET  /health           liveness
  GET  /metrics          Prometheus metrics

When watch.directories is configured, transcript files dropped there are
analyzed in the background as well.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("no-watch", false, "do not watch transcript directories")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	comps, err := initializeComponents(ctx, appConfig, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer comps.Close()

	// Build the index up front so the first request does not pay for it.
	if err := comps.Retriever.EnsureBuilt(ctx); err != nil {
		logger.Warn("Guideline index not built; recommendations will report retrieval errors", zap.Error(err))
	}

	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if dirs := appConfig.Watch.Directories; len(dirs) > 0 && !noWatch {
		w := newTranscriptWatcher(dirs, &appConfig.Watch, comps.Analyzer, nil)
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
		w.SyncExisting()
	}

	srv := server.NewServer(comps.Analyzer, comps.Retriever, &appConfig.Server, logger,
		server.WithLLMProvider(comps.LLMProvider()),
		server.WithMetricsHandler(promhttp.Handler()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
