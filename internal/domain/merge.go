package domain

// MergeFilings attaches the canonical school name to every filing row.
// Rows whose EIN is missing from the mapping keep an empty SchoolName rather
// than being dropped, so the output always has exactly as many rows as the
// input. Unmapped organizations stay visible for auditing.
func MergeFilings(filings []Filing, mapping map[string]string) []MergedFiling {
	merged := make([]MergedFiling, len(filings))
	for i, f := range filings {
		merged[i] = MergedFiling{
			Filing:     f,
			SchoolName: mapping[f.EIN],
		}
	}
	return merged
}
