// Package workbook reads raw cell grids out of .xlsx report files.
package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ListFiles returns the .xlsx files in dir, sorted by name so repeated runs
// visit them in the same order. Office lock files ("~$...") are skipped.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "~$") || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// ReadSheets opens a workbook and returns the raw cell grid of every
// requested sheet that exists in the file. Requested sheets absent from the
// workbook are simply not in the result; sheet names match exactly.
func ReadSheets(path string, names []string) (map[string][][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	present := make(map[string]struct{})
	for _, s := range f.GetSheetList() {
		present[s] = struct{}{}
	}

	grids := make(map[string][][]string)
	for _, name := range names {
		if _, ok := present[name]; !ok {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s of %s: %w", name, path, err)
		}
		grids[name] = rows
	}
	return grids, nil
}
