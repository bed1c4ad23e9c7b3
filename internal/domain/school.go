package domain

// School is one organizational unit extracted from the enrollment workbooks.
// All fields are carried as the source spreadsheets spell them; Code is the
// join key to metric rows. A school with an empty GradeLow is a placeholder
// row and is dropped before output.
type School struct {
	Code      string
	Name      string
	Type      string
	GradeLow  string
	GradeHigh string
	District  string
}

// Valid reports whether the school row survives the validity filter.
func (s School) Valid() bool {
	return s.GradeLow != ""
}

// SchoolMetric is one per-period measurement row tied to a school. The same
// school and period may appear once per source sheet; that is meaningful and
// metric rows are never deduplicated. Counts stay strings so the source
// values round-trip to CSV unaltered.
type SchoolMetric struct {
	SchoolCode      string
	Period          string
	Enrollment      string
	EnglishLearners string
	FRPMCount       string
	SourceSheet     string
}
