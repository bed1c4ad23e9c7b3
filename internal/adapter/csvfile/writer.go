package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sfcivicdata/school-finance-etl/internal/domain"
)

// WriteOrganizations writes the raw discovery results.
func WriteOrganizations(path string, orgs []domain.Organization) error {
	rows := make([][]string, len(orgs))
	for i, o := range orgs {
		rows[i] = []string{o.EIN, o.Name, o.SubName, o.City, o.State}
	}
	return writeCSV(path, []string{"ein", "name", "sub_name", "city", "state"}, rows)
}

// WriteFilings writes the raw tax filing table.
func WriteFilings(path string, filings []domain.Filing) error {
	rows := make([][]string, len(filings))
	for i, f := range filings {
		rows[i] = filingFields(f)
	}
	return writeCSV(path, filingHeader(), rows)
}

// WriteMergedFilings writes the name-merged filing table. The school_name
// column is empty for rows whose EIN had no canonical mapping.
func WriteMergedFilings(path string, merged []domain.MergedFiling) error {
	header := append(filingHeader(), "school_name")
	rows := make([][]string, len(merged))
	for i, m := range merged {
		rows[i] = append(filingFields(m.Filing), m.SchoolName)
	}
	return writeCSV(path, header, rows)
}

// WriteSchools writes the deduplicated school table.
func WriteSchools(path string, schools []domain.School) error {
	rows := make([][]string, len(schools))
	for i, s := range schools {
		rows[i] = []string{s.Code, s.Name, s.Type, s.GradeLow, s.GradeHigh, s.District}
	}
	return writeCSV(path,
		[]string{"school_code", "school_name", "school_type", "grade_low", "grade_high", "district"},
		rows)
}

// WriteSchoolMetrics writes the per-period metric table.
func WriteSchoolMetrics(path string, metrics []domain.SchoolMetric) error {
	rows := make([][]string, len(metrics))
	for i, m := range metrics {
		rows[i] = []string{m.SchoolCode, m.Period, m.Enrollment, m.EnglishLearners, m.FRPMCount, m.SourceSheet}
	}
	return writeCSV(path,
		[]string{"school_code", "period", "enrollment", "english_learners", "frpm_count", "source_sheet"},
		rows)
}

func filingHeader() []string {
	return []string{
		"ein", "org_name", "org_subname", "tax_prd", "tax_prd_yr", "pdf_url",
		"totrevenue", "totfuncexpns", "totassetsend", "totliabend",
	}
}

func filingFields(f domain.Filing) []string {
	return []string{
		f.EIN, f.OrgName, f.OrgSubName, f.TaxPeriod, f.TaxYear, f.PDFURL,
		strconv.FormatInt(f.TotalRevenue, 10),
		strconv.FormatInt(f.TotalExpenses, 10),
		strconv.FormatInt(f.TotalAssets, 10),
		strconv.FormatInt(f.TotalLiabilities, 10),
	}
}

// writeCSV overwrites path with a header row plus the given records.
func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
