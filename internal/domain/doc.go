// Package domain models school-support organizations (PTAs/PTOs), their
// ProPublica tax filings, and the identity reconciliation rules that attach a
// legible school name to each organization.
//
// # Data Source
//
// Organizations are discovered through the ProPublica Nonprofit Explorer API
// (https://projects.propublica.org/nonprofits/api). A paged search for the
// state PTA congress returns organizations statewide; the collector filters
// them to the target city. Tax filings come from the per-organization
// endpoint, which returns one record per filing period under
// "filings_with_data".
//
// # Identity Reconciliation
//
// ProPublica organization names are legal names ("Pta California Congress Of
// Parents Teachers & Students Inc"), useless for display. Two hand-curated
// override tables map EINs to school names:
//
//	recodes.csv     (ein, org_subname, school_name)      low priority
//	extra_orgs.csv  (ein, org_name, associated_school)   high priority
//
// The recode table only applies to EINs that came back from the search; rows
// for any other EIN are ignored. The extra-orgs table applies unconditionally
// — it exists precisely for organizations the search misses — and wins
// whenever both tables carry the same EIN. Precedence is implemented as
// ordered overlay passes over one map, highest priority applied last, so the
// rule stays auditable in the code. A duplicate EIN within a single table is
// not an error: the last row wins, and maintainers are asked to keep the
// tables duplicate-free.
//
// # EIN
//
// The IRS Employer Identification Number is the join key across every source.
// It is carried as a string throughout; ProPublica returns it as a JSON
// number, so the filing decoder normalizes it.
//
// # Merge Semantics
//
// Attaching school names to filing rows never drops a row. Organizations
// absent from the canonical mapping keep an empty school_name so they remain
// visible for auditing instead of silently vanishing.
package domain
