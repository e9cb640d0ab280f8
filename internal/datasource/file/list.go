// Package file locates local batch files for ingestion.
package file

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindCSVs walks root recursively and returns the paths of all .csv files,
// sorted lexically. Sorting makes the batch order deterministic, which
// matters because the first file fixes the schema.
func FindCSVs(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
