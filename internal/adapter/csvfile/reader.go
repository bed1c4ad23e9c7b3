// Package csvfile reads the hand-curated override tables and writes every
// CSV artifact the pipelines emit. All files are UTF-8 with a header row;
// outputs are full overwrites on every run.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/sfcivicdata/school-finance-etl/internal/domain"
)

// LoadOverrideTable reads an override CSV with the given source-name and
// canonical-name columns. The file must carry an "ein" column plus the two
// named columns; rows with an empty EIN are skipped. A missing file surfaces
// as an os.ErrNotExist-wrapped error so callers can treat it as a warning.
func LoadOverrideTable(path, sourceCol, canonicalCol string) ([]domain.OverrideRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open override table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read override table %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("override table %s: missing header row", path)
	}

	idx := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		idx[strings.TrimSpace(h)] = i
	}
	einIdx, ok := idx["ein"]
	if !ok {
		return nil, fmt.Errorf("override table %s: no ein column", path)
	}
	canonicalIdx, ok := idx[canonicalCol]
	if !ok {
		return nil, fmt.Errorf("override table %s: no %s column", path, canonicalCol)
	}
	sourceIdx, hasSource := idx[sourceCol]

	var records []domain.OverrideRecord
	for _, row := range all[1:] {
		ein := field(row, einIdx)
		if ein == "" {
			continue
		}
		rec := domain.OverrideRecord{
			EIN:           ein,
			CanonicalName: field(row, canonicalIdx),
		}
		if hasSource {
			rec.SourceName = field(row, sourceIdx)
		}
		records = append(records, rec)
	}
	return records, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
