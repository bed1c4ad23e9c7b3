package aggregate

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeHeader collapses whitespace runs to single spaces and trims the
// ends. Raw spreadsheet exports carry line breaks and doubled spaces in
// header cells from merged-cell formatting.
func normalizeHeader(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// headerRow locates the true header row of a raw sheet grid: the first row
// containing a cell that normalizes to keyColumn. Report exports put titles
// and export timestamps above the real header, so row 0 cannot be trusted.
// Returns the normalized header and its row index, or (nil, -1) when no row
// qualifies.
func headerRow(grid [][]string, keyColumn string) ([]string, int) {
	for i, row := range grid {
		for _, cell := range row {
			if normalizeHeader(cell) != keyColumn {
				continue
			}
			header := make([]string, len(row))
			for j, c := range row {
				header[j] = normalizeHeader(c)
			}
			return header, i
		}
	}
	return nil, -1
}

// columnIndex returns the position of name in a normalized header, or -1.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
