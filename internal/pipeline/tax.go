// Package pipeline orchestrates the collect-reconcile-merge-emit runs.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sfcivicdata/school-finance-etl/internal/adapter/csvfile"
	"github.com/sfcivicdata/school-finance-etl/internal/config"
	"github.com/sfcivicdata/school-finance-etl/internal/domain"
	"github.com/sfcivicdata/school-finance-etl/internal/observability"
)

// Searcher discovers organizations in the target city.
type Searcher interface {
	SearchOrganizations(ctx context.Context) ([]domain.Organization, error)
}

// FilingFetcher returns the tax filing rows for one EIN. An organization
// without usable filings yields an empty slice, not an error.
type FilingFetcher interface {
	FetchFilings(ctx context.Context, ein string) ([]domain.Filing, error)
}

// Artifacts holds the output paths of one collection run. Each file is a
// full overwrite.
type Artifacts struct {
	Organizations string
	Filings       string
	MergedFilings string
}

// Tax runs the tax collection pipeline: search, per-EIN filing pulls with a
// fixed cooldown between calls, identity reconciliation, and the
// non-destructive name merge.
type Tax struct {
	searcher      Searcher
	fetcher       FilingFetcher
	recodesPath   string
	extraOrgsPath string
	delay         time.Duration
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewTax creates the tax pipeline.
func NewTax(cfg *config.Config, searcher Searcher, fetcher FilingFetcher, metrics *observability.Metrics, logger *slog.Logger) *Tax {
	return &Tax{
		searcher:      searcher,
		fetcher:       fetcher,
		recodesPath:   cfg.RecodesPath,
		extraOrgsPath: cfg.ExtraOrgsPath,
		delay:         cfg.RequestDelay,
		clock:         clockwork.NewRealClock(),
		logger:        logger,
		metrics:       metrics,
	}
}

// Run executes one full collection. Network and file errors are fatal; the
// run keeps no partial state, so the caller can simply re-invoke it — equal
// inputs produce byte-identical artifacts.
func (t *Tax) Run(ctx context.Context, out Artifacts) error {
	t.metrics.PipelineRunning.Set(1)
	defer t.metrics.PipelineRunning.Set(0)

	orgs, err := t.searcher.SearchOrganizations(ctx)
	if err != nil {
		return err
	}
	if err := csvfile.WriteOrganizations(out.Organizations, orgs); err != nil {
		return err
	}
	t.metrics.RowsWritten.WithLabelValues("organizations").Add(float64(len(orgs)))

	recodes := t.loadOverrides(t.recodesPath, "org_subname", "school_name")
	overrides := t.loadOverrides(t.extraOrgsPath, "org_name", "associated_school")

	primary := domain.EINSet(orgs)
	filings, err := t.pullFilings(ctx, queryOrder(primary, overrides))
	if err != nil {
		return err
	}
	if err := csvfile.WriteFilings(out.Filings, filings); err != nil {
		return err
	}
	t.metrics.RowsWritten.WithLabelValues("filings").Add(float64(len(filings)))

	mapping := domain.Reconcile(primary, recodes, overrides, t.logger)
	merged := domain.MergeFilings(filings, mapping)
	if err := csvfile.WriteMergedFilings(out.MergedFilings, merged); err != nil {
		return err
	}
	t.metrics.RowsWritten.WithLabelValues("filings_merged").Add(float64(len(merged)))

	t.logSummary(merged)
	return nil
}

// pullFilings queries each EIN in order, pausing for the cooldown delay
// between successive calls. Organizations without filings are skipped; the
// rows that do come back accumulate in query order.
func (t *Tax) pullFilings(ctx context.Context, eins []string) ([]domain.Filing, error) {
	var filings []domain.Filing
	for i, ein := range eins {
		if i > 0 {
			if err := t.pause(ctx); err != nil {
				return nil, err
			}
		}

		rows, err := t.fetcher.FetchFilings(ctx, ein)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			t.metrics.OrganizationsSkipped.Inc()
			continue
		}
		t.metrics.FilingsFetched.Add(float64(len(rows)))
		filings = append(filings, rows...)
	}
	return filings, nil
}

// loadOverrides reads a hand-curated override table. A missing file is a
// warning and yields an empty table, matching how maintainers bootstrap a
// new deployment; any other failure is logged and also yields nothing
// rather than aborting the run after the API work is done.
func (t *Tax) loadOverrides(path, sourceCol, canonicalCol string) []domain.OverrideRecord {
	records, err := csvfile.LoadOverrideTable(path, sourceCol, canonicalCol)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.logger.Warn("override table not found, continuing without it", "path", path)
			return nil
		}
		t.logger.Error("override table unreadable, continuing without it", "path", path, "error", err)
		return nil
	}
	t.logger.Info("override table loaded", "path", path, "records", len(records))
	return records
}

// pause waits out the cooldown delay unless the context is cancelled first.
func (t *Tax) pause(ctx context.Context) error {
	if t.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.clock.After(t.delay):
		return nil
	}
}

func (t *Tax) logSummary(merged []domain.MergedFiling) {
	named := make(map[string]struct{})
	unnamed := make(map[string]struct{})
	for _, m := range merged {
		if m.SchoolName != "" {
			named[m.EIN] = struct{}{}
		} else {
			unnamed[m.EIN] = struct{}{}
			t.metrics.UnmappedFilings.Inc()
		}
	}
	t.logger.Info("collection run complete",
		"filing_rows", len(merged),
		"organizations", len(named)+len(unnamed),
		"with_school_name", len(named),
		"without_school_name", len(unnamed),
	)
}

// queryOrder unions the primary EINs with the override table's EINs — the
// extra-orgs table lists organizations the search misses, and they get
// queried too — sorted so reruns emit identical artifacts.
func queryOrder(primary map[string]struct{}, overrides []domain.OverrideRecord) []string {
	set := make(map[string]struct{}, len(primary)+len(overrides))
	for ein := range primary {
		set[ein] = struct{}{}
	}
	for _, rec := range overrides {
		set[rec.EIN] = struct{}{}
	}

	eins := make([]string, 0, len(set))
	for ein := range set {
		eins = append(eins, ein)
	}
	sort.Strings(eins)
	return eins
}
