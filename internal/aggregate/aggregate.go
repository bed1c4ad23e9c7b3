// Package aggregate unifies heterogeneous enrollment/demographic workbooks
// into two canonical tables: schools and per-period school metrics.
package aggregate

import (
	"log/slog"
	"strings"

	"github.com/sfcivicdata/school-finance-etl/internal/adapter/workbook"
	"github.com/sfcivicdata/school-finance-etl/internal/config"
	"github.com/sfcivicdata/school-finance-etl/internal/domain"
	"github.com/sfcivicdata/school-finance-etl/internal/observability"
)

// keyColumn anchors header-row discovery: the true header is the first row
// containing this cell. regionColumn carries the district the row belongs
// to; source files are statewide, so rows are filtered to one district.
const (
	keyColumn    = "School Code"
	regionColumn = "District Name"
)

// Column maps translate normalized sheet headers to canonical field names.
// The maps are partial: columns a sheet doesn't carry are omitted from the
// projection, never an error.
var (
	defaultEntityColumns = map[string]string{
		"School Code":   "code",
		"School Name":   "name",
		"School Type":   "type",
		"Low Grade":     "grade_low",
		"High Grade":    "grade_high",
		"District Name": "district",
	}
	defaultMetricColumns = map[string]string{
		"School Code":            "code",
		"Academic Year":          "period",
		"Total Enrollment":       "enrollment",
		"English Learners":       "english_learners",
		"Free and Reduced Meals": "frpm",
	}
)

// Aggregator extracts the school and metric tables from a directory of
// workbook files.
type Aggregator struct {
	entitySheet   string
	metricSheets  []string
	entityColumns map[string]string
	metricColumns map[string]string
	region        string
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// New creates an Aggregator with the default column maps.
func New(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		entitySheet:   cfg.EntitySheet,
		metricSheets:  cfg.MetricSheets,
		entityColumns: defaultEntityColumns,
		metricColumns: defaultMetricColumns,
		region:        cfg.RegionFilter,
		metrics:       metrics,
		logger:        logger,
	}
}

// Run processes every workbook in dir and returns the two canonical tables.
// School rows are union-then-deduplicated on the full row tuple; metric rows
// are kept as-is, tagged with their source sheet. The post-pass drops
// placeholder schools (empty low grade) and then every metric row whose
// school did not survive.
func (a *Aggregator) Run(dir string) ([]domain.School, []domain.SchoolMetric, error) {
	files, err := workbook.ListFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	var (
		schools    []domain.School
		seen       = make(map[domain.School]struct{})
		rawMetrics []domain.SchoolMetric
	)

	sheetNames := append([]string{a.entitySheet}, a.metricSheets...)
	for _, file := range files {
		grids, err := workbook.ReadSheets(file, sheetNames)
		if err != nil {
			return nil, nil, err
		}
		a.metrics.WorkbooksProcessed.Inc()

		if grid, ok := grids[a.entitySheet]; ok {
			for _, rec := range a.extractRows(file, a.entitySheet, grid, a.entityColumns) {
				s := schoolFromRecord(rec)
				if _, dup := seen[s]; dup {
					continue
				}
				seen[s] = struct{}{}
				schools = append(schools, s)
			}
		}

		for _, sheet := range a.metricSheets {
			grid, ok := grids[sheet]
			if !ok {
				continue
			}
			for _, rec := range a.extractRows(file, sheet, grid, a.metricColumns) {
				rawMetrics = append(rawMetrics, metricFromRecord(rec, sheet))
			}
		}
	}

	schools = a.dropInvalidSchools(schools)

	codes := make(map[string]struct{}, len(schools))
	for _, s := range schools {
		codes[s.Code] = struct{}{}
	}
	metrics := a.dropOrphanedMetrics(rawMetrics, codes)

	a.logger.Info("workbook aggregation complete",
		"files", len(files), "schools", len(schools), "metric_rows", len(metrics))
	return schools, metrics, nil
}

// extractRows rediscovers the header, filters to the target region, and
// projects the remaining rows through colMap. Sheets without a usable header
// or region column yield nothing.
func (a *Aggregator) extractRows(file, sheet string, grid [][]string, colMap map[string]string) []map[string]string {
	header, headerIdx := headerRow(grid, keyColumn)
	if headerIdx < 0 {
		a.logger.Warn("no header row found", "file", file, "sheet", sheet)
		return nil
	}
	regionIdx := columnIndex(header, regionColumn)
	if regionIdx < 0 {
		a.logger.Warn("no region column found", "file", file, "sheet", sheet)
		return nil
	}

	// Only columns actually present in this sheet are projected.
	fieldIdx := make(map[string]int)
	for raw, canonical := range colMap {
		if i := columnIndex(header, raw); i >= 0 {
			fieldIdx[canonical] = i
		}
	}

	var records []map[string]string
	for _, row := range grid[headerIdx+1:] {
		if cell(row, regionIdx) != a.region {
			continue
		}
		rec := make(map[string]string, len(fieldIdx))
		for canonical, i := range fieldIdx {
			rec[canonical] = cell(row, i)
		}
		// Subtotal and footer rows carry no school code.
		if rec["code"] == "" {
			continue
		}
		records = append(records, rec)
	}

	a.metrics.SheetsProcessed.Inc()
	return records
}

// dropInvalidSchools removes placeholder rows: a school without a low grade
// is a district office or a closed site, not a real school.
func (a *Aggregator) dropInvalidSchools(schools []domain.School) []domain.School {
	valid := schools[:0]
	for _, s := range schools {
		if !s.Valid() {
			a.metrics.EntitiesDropped.Inc()
			a.logger.Debug("dropping school without low grade", "code", s.Code, "name", s.Name)
			continue
		}
		valid = append(valid, s)
	}
	return valid
}

// dropOrphanedMetrics inner-joins the metric rows against the surviving
// school codes. Metrics for schools that failed the validity filter are
// discarded entirely, not retained with blanks.
func (a *Aggregator) dropOrphanedMetrics(metrics []domain.SchoolMetric, codes map[string]struct{}) []domain.SchoolMetric {
	kept := metrics[:0]
	for _, m := range metrics {
		if _, ok := codes[m.SchoolCode]; !ok {
			a.metrics.MetricsDropped.Inc()
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

func schoolFromRecord(rec map[string]string) domain.School {
	return domain.School{
		Code:      rec["code"],
		Name:      rec["name"],
		Type:      rec["type"],
		GradeLow:  rec["grade_low"],
		GradeHigh: rec["grade_high"],
		District:  rec["district"],
	}
}

func metricFromRecord(rec map[string]string, sheet string) domain.SchoolMetric {
	return domain.SchoolMetric{
		SchoolCode:      rec["code"],
		Period:          rec["period"],
		Enrollment:      rec["enrollment"],
		EnglishLearners: rec["english_learners"],
		FRPMCount:       rec["frpm"],
		SourceSheet:     sheet,
	}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
