// Command enrollment aggregates the annual enrollment and demographic
// workbooks under REPORTS_DIR into two CSV artifacts: the deduplicated
// school table and the per-period metric table.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sfcivicdata/school-finance-etl/internal/adapter/csvfile"
	"github.com/sfcivicdata/school-finance-etl/internal/aggregate"
	"github.com/sfcivicdata/school-finance-etl/internal/config"
	"github.com/sfcivicdata/school-finance-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	schools, schoolMetrics, err := aggregate.New(cfg, metrics, logger).Run(cfg.ReportsDir)
	if err != nil {
		logger.Error("aggregation error", "error", err)
		os.Exit(1)
	}

	schoolsPath := filepath.Join(cfg.OutputDir, "schools.csv")
	if err := csvfile.WriteSchools(schoolsPath, schools); err != nil {
		logger.Error("write schools", "error", err)
		os.Exit(1)
	}
	metrics.RowsWritten.WithLabelValues("schools").Add(float64(len(schools)))

	metricsPath := filepath.Join(cfg.OutputDir, "school_metrics.csv")
	if err := csvfile.WriteSchoolMetrics(metricsPath, schoolMetrics); err != nil {
		logger.Error("write school metrics", "error", err)
		os.Exit(1)
	}
	metrics.RowsWritten.WithLabelValues("school_metrics").Add(float64(len(schoolMetrics)))

	logger.Info("done", "schools", schoolsPath, "metrics", metricsPath)
}
