package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"sdi/internal"
	"sdi/internal/dataset"
	"sdi/internal/storage"
)

// PackageResult reports one packaging action to the dashboard.
type PackageResult struct {
	PackageID string
	Rows      int
	Flashes   []internal.Flash
}

func flashResult(level internal.FlashLevel, message string) PackageResult {
	return PackageResult{Flashes: []internal.Flash{{Level: level, Message: message}}}
}

// Package commits a building's approved source rows to the export ledger as
// one new package. Validation failures and packaging collisions come back as
// flashes with the ledger untouched; only environment and store failures are
// errors. A collision is passed only by an explicit force, which replaces
// the colliding ledger rows.
func (s *Service) Package(buildingCode string, force bool, now time.Time) (PackageResult, error) {
	if strings.TrimSpace(buildingCode) == "" {
		return flashResult(internal.FlashWarning, "To create a pack, select only one building at a time"), nil
	}

	ds, err := s.SourceDataset(buildingCode)
	if err != nil {
		return PackageResult{}, err
	}
	if ds.Empty() {
		return flashResult(internal.FlashInfo, "No new assets to export for the selected building."), nil
	}

	for _, row := range ds.Rows {
		row["QR Code"] = strings.TrimSpace(row["QR Code"])
	}

	if blank := firstBlankRequired(ds); blank != "" {
		return flashResult(internal.FlashDanger,
			`To create a package, the fields "Description", "Asset Group" and "Attribute" must be filled in`), nil
	}

	if !force {
		ledgered, err := s.db.Codes()
		if err != nil {
			return PackageResult{}, err
		}
		if dups := intersect(ds.Values("QR Code"), ledgered); len(dups) > 0 {
			return flashResult(internal.FlashConfirmReplace, "CONFIRM:"+strings.Join(dups, ",")), nil
		}
	}

	packageID, err := s.db.AppendPackage(ds, now, force)
	var dup *storage.DuplicateCodesError
	if errors.As(err, &dup) {
		// Another operator ledgered these codes between the check and the
		// append; surface the same confirmation prompt.
		return flashResult(internal.FlashConfirmReplace, "CONFIRM:"+strings.Join(dup.Codes, ",")), nil
	}
	if err != nil {
		return PackageResult{}, err
	}

	s.log.Info("package created",
		zap.String("package_id", packageID),
		zap.String("building", buildingCode),
		zap.Int("rows", len(ds.Rows)))

	verb := "Exported"
	if force {
		verb = "Replaced and exported"
	}
	result := flashResult(internal.FlashSuccess,
		fmt.Sprintf("%s %d rows for the selected building as package %s.", verb, len(ds.Rows), packageID))
	result.PackageID = packageID
	result.Rows = len(ds.Rows)
	return result, nil
}

// Exclude deletes a package from the ledger, returning its rows to the
// unpackaged pool. The package counter is not rewound.
func (s *Service) Exclude(packageID string) (int64, error) {
	deleted, err := s.db.ExcludePackage(packageID)
	if err != nil {
		return 0, err
	}
	s.log.Info("package excluded", zap.String("package_id", packageID), zap.Int64("rows", deleted))
	return deleted, nil
}

func firstBlankRequired(ds dataset.Dataset) string {
	for _, col := range internal.RequiredCols {
		for _, v := range ds.Values(col) {
			if v == "" {
				return col
			}
		}
	}
	return ""
}

func intersect(codes []string, ledgered map[string]struct{}) []string {
	seen := make(map[string]bool, len(codes))
	var out []string
	for _, c := range codes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if _, ok := ledgered[c]; ok {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
