// Command validate performs integrity checks across the emitted CSV
// artifacts: the raw and merged filing tables, the school table, and the
// school metric table. It verifies row-count preservation through the merge,
// school validity, duplicate-free entities, and referential integrity.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -filings data/filings.csv \
//	  -merged data/filings_merged.csv \
//	  -schools data/schools.csv \
//	  -metrics data/school_metrics.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strings"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	filings := flag.String("filings", "", "path to the raw filings CSV")
	merged := flag.String("merged", "", "path to the merged filings CSV")
	schools := flag.String("schools", "", "path to the schools CSV")
	metrics := flag.String("metrics", "", "path to the school metrics CSV")
	flag.Parse()

	if *filings == "" || *merged == "" || *schools == "" || *metrics == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*filings, *merged, *schools, *metrics); code != 0 {
		os.Exit(code)
	}
}

func run(filingsPath, mergedPath, schoolsPath, metricsPath string) int {
	fmt.Println("=== School Finance Artifact Validation ===")
	fmt.Println()

	filings, err := loadTable(filingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load filings: %v\n", err)
		return 1
	}
	merged, err := loadTable(mergedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load merged filings: %v\n", err)
		return 1
	}
	schools, err := loadTable(schoolsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load schools: %v\n", err)
		return 1
	}
	schoolMetrics, err := loadTable(metricsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load school metrics: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateMergeIntegrity(filings, merged),
		validateSchoolTable(schools),
		validateReferentialIntegrity(schools, schoolMetrics),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d filings, %d merged, %d schools, %d metrics\n",
		len(filings.rows), len(merged.rows), len(schools.rows), len(schoolMetrics.rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

type table struct {
	header []string
	rows   []row
}

// row is a parsed CSV row with field values keyed by header name.
type row struct {
	lineNum int
	fields  map[string]string
}

func loadTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no header row in %s", path)
	}

	t := &table{header: all[0]}
	for i, rec := range all[1:] {
		fields := make(map[string]string, len(t.header))
		for j, h := range t.header {
			if j < len(rec) {
				fields[h] = strings.TrimSpace(rec[j])
			}
		}
		t.rows = append(t.rows, row{lineNum: i + 2, fields: fields})
	}
	return t, nil
}

// ── Phase 1: Merge Integrity ──
// The merge attaches a school_name column and must never add, drop, or
// mutate filing rows.

func validateMergeIntegrity(filings, merged *table) *phase {
	p := &phase{name: "Phase 1: Merge Integrity (filings)"}

	if len(filings.rows) != len(merged.rows) {
		p.errorf("row count: filings has %d, merged has %d", len(filings.rows), len(merged.rows))
		return p
	}

	extra := diffColumns(merged.header, filings.header)
	if len(extra) != 1 || extra[0] != "school_name" {
		p.errorf("merged columns beyond the raw set: %v (want only school_name)", extra)
	}
	if missing := diffColumns(filings.header, merged.header); len(missing) > 0 {
		p.errorf("merged table dropped columns: %v", missing)
	}

	for i := range filings.rows {
		for _, col := range filings.header {
			if filings.rows[i].fields[col] != merged.rows[i].fields[col] {
				p.errorf("line %d: column %q: filings=%q, merged=%q",
					filings.rows[i].lineNum, col, filings.rows[i].fields[col], merged.rows[i].fields[col])
			}
		}
	}
	return p
}

// ── Phase 2: School Table ──
// Every school must carry a low grade, and the full row tuple must be
// unique.

func validateSchoolTable(schools *table) *phase {
	p := &phase{name: "Phase 2: School Table (validity)"}

	seen := map[string]int{}
	for _, r := range schools.rows {
		if r.fields["school_code"] == "" {
			p.errorf("line %d: empty school_code", r.lineNum)
		}
		if r.fields["grade_low"] == "" {
			p.errorf("line %d: school %q has empty grade_low", r.lineNum, r.fields["school_code"])
		}

		key := rowKey(r, schools.header)
		if first, dup := seen[key]; dup {
			p.errorf("line %d: duplicate of line %d", r.lineNum, first)
			continue
		}
		seen[key] = r.lineNum
	}
	return p
}

// ── Phase 3: Referential Integrity ──
// Every metric row must reference a school that survived aggregation.

func validateReferentialIntegrity(schools, metrics *table) *phase {
	p := &phase{name: "Phase 3: Referential Integrity (metrics)"}

	codes := map[string]bool{}
	for _, r := range schools.rows {
		codes[r.fields["school_code"]] = true
	}

	for _, r := range metrics.rows {
		code := r.fields["school_code"]
		if code == "" {
			p.errorf("line %d: empty school_code", r.lineNum)
			continue
		}
		if !codes[code] {
			p.errorf("line %d: school_code %q not present in schools table", r.lineNum, code)
		}
		if r.fields["source_sheet"] == "" {
			p.errorf("line %d: empty source_sheet", r.lineNum)
		}
	}
	return p
}

// ── Helpers ──

// diffColumns returns the columns of a not present in b, in a's order.
func diffColumns(a, b []string) []string {
	inB := map[string]bool{}
	for _, c := range b {
		inB[c] = true
	}
	var out []string
	for _, c := range a {
		if !inB[c] {
			out = append(out, c)
		}
	}
	return out
}

func rowKey(r row, header []string) string {
	parts := make([]string, len(header))
	for i, h := range header {
		parts[i] = r.fields[h]
	}
	return strings.Join(parts, "|")
}
