package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/regindex/internal/api"
	"github.com/dgallion1/regindex/internal/chunker"
	"github.com/dgallion1/regindex/internal/config"
	"github.com/dgallion1/regindex/internal/metrics"
	"github.com/dgallion1/regindex/internal/pipeline"
	"github.com/dgallion1/regindex/internal/search"
	"github.com/dgallion1/regindex/internal/store"
	"github.com/spf13/cobra"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search and quote over HTTP",
		Long: `Serve the regulation index over HTTP.

Search and quote endpoints are public. When REGINDEX_API_KEY is set,
documents can be uploaded to POST /api/index to rebuild the live index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}
			return serve(*cfg)
		},
	}
	cmd.Flags().String("port", "", "Listen port (overrides PORT)")
	return cmd
}

func serve(cfg config.Config) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	searcher := search.Open(cfg.IndexPath)
	if le := searcher.LoadErr(); le != nil {
		log.Warn("starting without index", "error", le.Code, "path", le.Path)
	} else {
		log.Info("loaded index", "path", cfg.IndexPath, "chunks", searcher.Len())
	}

	if cfg.WatchIndex {
		if err := search.Watch(ctx, searcher, cfg.IndexPath, cfg.WatchDebounce, log); err != nil {
			log.Warn("index watcher disabled", "error", err)
		}
	}

	var m *metrics.Metrics
	if cfg.Metrics {
		m = metrics.New()
		m.TrackIndexSize(searcher.Len)
	}

	// Initialize the build pipeline only when uploads can be authenticated.
	var orch *pipeline.Orchestrator
	if cfg.APIKey != "" {
		builder, err := pipeline.NewBuilder(chunker.Config{MaxChars: cfg.MaxChars, Overlap: cfg.ChunkOverlap}, cfg.SplitWorkers, log)
		if err != nil {
			return err
		}

		var exp pipeline.Exporter
		if cfg.SQLitePath != "" {
			sq, err := store.OpenSQLite(ctx, cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer sq.Close()
			exp = sq
		}

		orch = pipeline.NewOrchestrator(cfg, builder, searcher, exp, log)
		orch.SetMetrics(m)
		orch.Start(ctx)
	} else {
		log.Info("REGINDEX_API_KEY not set, index uploads disabled")
	}

	srv := api.NewServer(searcher, orch, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		if orch != nil {
			orch.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting regindex", "port", cfg.Port, "uploads", orch != nil)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		return err
	}
	return nil
}
