package csvfile

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfcivicdata/school-finance-etl/internal/domain"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readBack(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestLoadOverrideTable(t *testing.T) {
	t.Run("recode table", func(t *testing.T) {
		path := writeFixture(t, "recodes.csv",
			"ein,org_subname,school_name\n"+
				"11-1111111,Lincoln Pta,Lincoln ES\n"+
				"22-2222222, Sunset Pta , Sunset ES \n")

		records, err := LoadOverrideTable(path, "org_subname", "school_name")

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, domain.OverrideRecord{
			EIN: "11-1111111", SourceName: "Lincoln Pta", CanonicalName: "Lincoln ES",
		}, records[0])
		// Values are whitespace-trimmed.
		assert.Equal(t, "Sunset ES", records[1].CanonicalName)
	})

	t.Run("rows with empty ein are skipped", func(t *testing.T) {
		path := writeFixture(t, "recodes.csv",
			"ein,org_subname,school_name\n,Ghost Pta,Ghost ES\n11-1111111,A,B\n")

		records, err := LoadOverrideTable(path, "org_subname", "school_name")

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "11-1111111", records[0].EIN)
	})

	t.Run("missing file wraps os.ErrNotExist", func(t *testing.T) {
		_, err := LoadOverrideTable(filepath.Join(t.TempDir(), "nope.csv"), "a", "b")
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("missing canonical column is an error", func(t *testing.T) {
		path := writeFixture(t, "bad.csv", "ein,org_subname\n11-1111111,A\n")
		_, err := LoadOverrideTable(path, "org_subname", "school_name")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "school_name")
	})

	t.Run("missing source column is tolerated", func(t *testing.T) {
		path := writeFixture(t, "extra.csv",
			"ein,associated_school\n22-2222222,Jefferson MS\n")

		records, err := LoadOverrideTable(path, "org_name", "associated_school")

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Empty(t, records[0].SourceName)
		assert.Equal(t, "Jefferson MS", records[0].CanonicalName)
	})
}

func TestWriteOrganizations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "organizations.csv")
	orgs := []domain.Organization{
		{EIN: "111", Name: "A Pta", SubName: "Lincoln Pta", City: "San Francisco", State: "CA"},
	}

	require.NoError(t, WriteOrganizations(path, orgs))

	rows := readBack(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ein", "name", "sub_name", "city", "state"}, rows[0])
	assert.Equal(t, []string{"111", "A Pta", "Lincoln Pta", "San Francisco", "CA"}, rows[1])
}

func TestWriteFilingsAndMerged(t *testing.T) {
	dir := t.TempDir()
	filings := []domain.Filing{
		{
			EIN: "111", OrgName: "A Pta", OrgSubName: "Lincoln Pta",
			TaxPeriod: "202306", TaxYear: "2023", PDFURL: "https://example.org/990.pdf",
			TotalRevenue: 61000, TotalExpenses: 48000, TotalAssets: 22000, TotalLiabilities: 500,
		},
		{EIN: "222", OrgName: "B Org", TaxPeriod: "202306", TaxYear: "2023"},
	}

	rawPath := filepath.Join(dir, "filings.csv")
	require.NoError(t, WriteFilings(rawPath, filings))
	raw := readBack(t, rawPath)
	require.Len(t, raw, 3)
	assert.Equal(t, "totrevenue", raw[0][6])
	assert.Equal(t, "61000", raw[1][6])
	assert.Equal(t, "0", raw[2][6])

	merged := domain.MergeFilings(filings, map[string]string{"111": "Lincoln ES"})
	mergedPath := filepath.Join(dir, "filings_merged.csv")
	require.NoError(t, WriteMergedFilings(mergedPath, merged))
	out := readBack(t, mergedPath)
	require.Len(t, out, 3)
	assert.Equal(t, "school_name", out[0][len(out[0])-1])
	assert.Equal(t, "Lincoln ES", out[1][len(out[1])-1])
	assert.Empty(t, out[2][len(out[2])-1])
	// Merge is non-destructive: one output row per input row.
	assert.Equal(t, len(raw), len(out))
}

func TestWriteSchoolsAndMetrics(t *testing.T) {
	dir := t.TempDir()

	schoolsPath := filepath.Join(dir, "schools.csv")
	require.NoError(t, WriteSchools(schoolsPath, []domain.School{
		{Code: "sc1", Name: "Lincoln ES", Type: "Elementary", GradeLow: "K", GradeHigh: "5", District: "San Francisco Unified"},
	}))
	rows := readBack(t, schoolsPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "grade_low", rows[0][3])
	assert.Equal(t, "K", rows[1][3])

	metricsPath := filepath.Join(dir, "school_metrics.csv")
	require.NoError(t, WriteSchoolMetrics(metricsPath, []domain.SchoolMetric{
		{SchoolCode: "sc1", Period: "2023-24", Enrollment: "412", SourceSheet: "Enrollment"},
	}))
	rows = readBack(t, metricsPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "source_sheet", rows[0][5])
	assert.Equal(t, "Enrollment", rows[1][5])
}

func TestWriteCSV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "organizations.csv")

	require.NoError(t, WriteOrganizations(path, []domain.Organization{
		{EIN: "111"}, {EIN: "222"},
	}))
	require.NoError(t, WriteOrganizations(path, []domain.Organization{
		{EIN: "333"},
	}))

	rows := readBack(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "333", rows[1][0])
}
