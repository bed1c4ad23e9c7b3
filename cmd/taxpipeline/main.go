// Command taxpipeline collects nonprofit tax filings for the target city's
// parent-teacher organizations and emits three CSV artifacts: the discovered
// organizations, their raw filings, and the filings merged with canonical
// school names.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	httpadapter "github.com/sfcivicdata/school-finance-etl/internal/adapter/http"
	"github.com/sfcivicdata/school-finance-etl/internal/adapter/propublica"
	"github.com/sfcivicdata/school-finance-etl/internal/config"
	"github.com/sfcivicdata/school-finance-etl/internal/observability"
	"github.com/sfcivicdata/school-finance-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := propublica.NewClient(cfg, metrics, logger)
	p := pipeline.NewTax(cfg, client, client, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics server is optional; long runs benefit from watching progress.
	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	out := pipeline.Artifacts{
		Organizations: filepath.Join(cfg.OutputDir, "organizations.csv"),
		Filings:       filepath.Join(cfg.OutputDir, "filings.csv"),
		MergedFilings: filepath.Join(cfg.OutputDir, "filings_merged.csv"),
	}

	runErr := p.Run(ctx, out)
	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		os.Exit(1)
	}
	logger.Info("done", "output_dir", cfg.OutputDir)
}
