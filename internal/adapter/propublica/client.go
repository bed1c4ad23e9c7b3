package propublica

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sfcivicdata/school-finance-etl/internal/config"
	"github.com/sfcivicdata/school-finance-etl/internal/domain"
	"github.com/sfcivicdata/school-finance-etl/internal/observability"
)

// publicURLBase is the human-facing organization page, logged alongside skip
// warnings so maintainers can inspect the organization by hand.
const publicURLBase = "https://projects.propublica.org/nonprofits/organizations"

// Client queries the ProPublica Nonprofit Explorer API. Successive page
// fetches are separated by the configured cooldown delay; the per-EIN
// cooldown is the pipeline's responsibility.
type Client struct {
	baseURL     string
	searchQuery string
	searchState string
	targetCity  string
	delay       time.Duration
	httpClient  *http.Client
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a ProPublica API client from the pipeline configuration.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     cfg.APIBaseURL,
		searchQuery: cfg.SearchQuery,
		searchState: cfg.SearchState,
		targetCity:  cfg.TargetCity,
		delay:       cfg.RequestDelay,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
}

// SearchOrganizations pages through the search endpoint and returns every
// organization whose city matches the target city exactly. The page count is
// discovered from the first response; pages are fetched sequentially with the
// cooldown delay in between.
func (c *Client) SearchOrganizations(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization

	page := 0
	totalPages := 1
	for page < totalPages {
		resp, err := c.searchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		if page == 0 {
			totalPages = resp.NumPages
		}
		c.metrics.SearchPages.Inc()

		for _, org := range resp.Organizations {
			if org.City != c.targetCity {
				continue
			}
			orgs = append(orgs, domain.Organization{
				EIN:     org.EIN.String(),
				Name:    org.Name,
				SubName: firstNonEmpty(org.SubName, org.SortName),
				City:    org.City,
				State:   org.State,
			})
		}

		page++
		if page < totalPages {
			if err := c.pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	c.metrics.OrganizationsFound.Add(float64(len(orgs)))
	c.logger.Info("organization search complete",
		"pages", page, "city", c.targetCity, "organizations", len(orgs))
	return orgs, nil
}

// FetchFilings returns the filing-period rows for one EIN. Organizations with
// no usable filings are logged with their public ProPublica URL and yield an
// empty slice rather than an error; only transport and decode failures are
// returned.
func (c *Client) FetchFilings(ctx context.Context, ein string) ([]domain.Filing, error) {
	u := fmt.Sprintf("%s/organizations/%s.json", c.baseURL, url.PathEscape(ein))

	var resp organizationResponse
	if err := c.doRequest(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("organization %s: %w", ein, err)
	}

	if len(resp.FilingsWithData) == 0 {
		c.logger.Warn("no filings with data",
			"ein", ein,
			"organization", resp.Organization.Name,
			"url", fmt.Sprintf("%s/%s", publicURLBase, ein),
		)
		return nil, nil
	}

	org := resp.Organization
	subName := firstNonEmpty(org.SubName, org.SortName)
	filings := make([]domain.Filing, len(resp.FilingsWithData))
	for i, f := range resp.FilingsWithData {
		filings[i] = domain.Filing{
			EIN:              org.EIN.String(),
			OrgName:          org.Name,
			OrgSubName:       subName,
			TaxPeriod:        f.TaxPrd.String(),
			TaxYear:          f.TaxPrdYr.String(),
			PDFURL:           f.PDFURL,
			TotalRevenue:     f.TotRevenue,
			TotalExpenses:    f.TotFuncExpns,
			TotalAssets:      f.TotAssetsEnd,
			TotalLiabilities: f.TotLiabEnd,
		}
	}
	return filings, nil
}

func (c *Client) searchPage(ctx context.Context, page int) (*searchResponse, error) {
	params := url.Values{
		"q":         {c.searchQuery},
		"state[id]": {c.searchState},
		"page":      {fmt.Sprintf("%d", page)},
	}
	u := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	var resp searchResponse
	if err := c.doRequest(ctx, u, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.APIRequestDuration.Observe(c.clock.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("propublica API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pause waits for the cooldown delay, returning early if the context is
// cancelled.
func (c *Client) pause(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(c.delay):
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ProPublica API response types. EINs and tax periods arrive as JSON numbers
// and are normalized to strings.

type searchResponse struct {
	TotalResults  int         `json:"total_results"`
	NumPages      int         `json:"num_pages"`
	Organizations []searchOrg `json:"organizations"`
}

type searchOrg struct {
	EIN      json.Number `json:"ein"`
	Name     string      `json:"name"`
	SubName  string      `json:"sub_name"`
	SortName string      `json:"sortname"`
	City     string      `json:"city"`
	State    string      `json:"state"`
}

type organizationResponse struct {
	Organization    organizationDetail `json:"organization"`
	FilingsWithData []filingRecord     `json:"filings_with_data"`
}

type organizationDetail struct {
	EIN      json.Number `json:"ein"`
	Name     string      `json:"name"`
	SubName  string      `json:"sub_name"`
	SortName string      `json:"sort_name"`
}

type filingRecord struct {
	TaxPrd       json.Number `json:"tax_prd"`
	TaxPrdYr     json.Number `json:"tax_prd_yr"`
	PDFURL       string      `json:"pdf_url"`
	TotRevenue   int64       `json:"totrevenue"`
	TotFuncExpns int64       `json:"totfuncexpns"`
	TotAssetsEnd int64       `json:"totassetsend"`
	TotLiabEnd   int64       `json:"totliabend"`
}
