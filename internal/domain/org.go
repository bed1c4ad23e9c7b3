package domain

// Organization is one search result from the discovery endpoint, filtered to
// the target city by the collector.
type Organization struct {
	EIN     string
	Name    string
	SubName string
	City    string
	State   string
}

// OverrideRecord is one row of a hand-curated name override table:
// the EIN, the organization name as the source table spells it, and the
// school name the organization should be displayed under.
type OverrideRecord struct {
	EIN           string
	SourceName    string
	CanonicalName string
}

// Filing is one tax-period record for an organization. An EIN appears once
// per filing period, so several Filings usually share an EIN.
// Financial amounts are whole dollars as reported on the Form 990.
type Filing struct {
	EIN              string
	OrgName          string
	OrgSubName       string
	TaxPeriod        string // YYYYMM end of the filing period
	TaxYear          string
	PDFURL           string
	TotalRevenue     int64
	TotalExpenses    int64
	TotalAssets      int64
	TotalLiabilities int64
}

// MergedFiling is a Filing with the reconciled school name attached.
// SchoolName is empty when the EIN is absent from the canonical mapping.
type MergedFiling struct {
	Filing
	SchoolName string
}

// EINSet collects the distinct EINs of a slice of organizations.
func EINSet(orgs []Organization) map[string]struct{} {
	set := make(map[string]struct{}, len(orgs))
	for _, org := range orgs {
		set[org.EIN] = struct{}{}
	}
	return set
}
