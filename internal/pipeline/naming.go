package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sdi/internal/dataset"
	"sdi/internal/util"
)

const outputDateFormat = "01_02_2006"

// buildingLabel collapses a batch's property values to one file-name label:
// the single value, a fixed multi-building token, or an explicit unknown.
func buildingLabel(ds dataset.Dataset, column string) string {
	if !ds.HasColumn(column) || ds.Empty() {
		return "UnknownBuilding"
	}

	seen := make(map[string]bool)
	var uniq []string
	for _, v := range ds.Values(column) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		uniq = append(uniq, v)
	}

	switch len(uniq) {
	case 0:
		return "UnknownBuilding"
	case 1:
		return util.SafeFilename(uniq[0])
	default:
		return "MULTI_Building"
	}
}

// OutputName derives the deterministic workbook name from the package id,
// export date and building label.
func OutputName(prefix, packageID string, now time.Time, ds dataset.Dataset, propertyCol string) string {
	parts := []string{prefix}
	if packageID != "" {
		parts = append(parts, util.SafeFilename(packageID))
	}
	parts = append(parts, now.Format(outputDateFormat), buildingLabel(ds, propertyCol))
	return strings.Join(parts, "_") + ".xlsx"
}

// UniquePath appends an incrementing suffix while the candidate path exists,
// so shared-directory exports never overwrite an earlier file.
func UniquePath(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	candidate := path
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
	}
}
