package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sdi/internal"
	"sdi/internal/dataset"
	"sdi/internal/util"
)

// DuplicateClassificationError rejects a batch whose asset groups resolve to
// more than one classification code, naming the affected assets. Picking one
// silently would send wrong classifications downstream.
type DuplicateClassificationError struct {
	QRCodes []string
}

func (e *DuplicateClassificationError) Error() string {
	return fmt.Sprintf("The Asset Group is duplicated for QR Codes: %s. This field must have a unique value.",
		strings.Join(e.QRCodes, ", "))
}

// Transform reshapes a packaged record set into the downstream import
// schema: classification resolution, the outbound rename map, constant flag
// columns, unit-of-measure annotations and manufacture-date normalization.
// Pure transform over its input; each step skips when its source column is
// absent.
func Transform(ds dataset.Dataset, classifications []internal.Classification, now time.Time) (dataset.Dataset, error) {
	ds = ds.Normalize(internal.MasterCols)

	if err := applyClassifications(ds, classifications); err != nil {
		return dataset.Dataset{}, err
	}

	out := renameForDownstream(ds)

	for name, value := range internal.ConstCols {
		v := "FALSE"
		if value {
			v = "TRUE"
		}
		for _, row := range out.Rows {
			row[name] = v
		}
	}
	out.Columns = append(out.Columns, constColNames()...)

	annotateUnit(&out, "Voltage Rating", "V")
	annotateUnit(&out, "Amperage Rating", "A")

	if out.HasColumn("Date Of Manufacture Or Construction") {
		for _, row := range out.Rows {
			row["Date Of Manufacture Or Construction"] =
				util.FormatYearToDate(now, row["Date Of Manufacture Or Construction"])
		}
	}

	return out, nil
}

// applyClassifications resolves asset-group short names in place. "panels"
// assets take the fixed classification; the rest go through the mapping
// table, with the whole batch rejected when a referenced short name maps to
// more than one distinct target.
func applyClassifications(ds dataset.Dataset, classifications []internal.Classification) error {
	if len(classifications) == 0 || !ds.HasColumn("Asset Group") {
		return nil
	}

	targets := make(map[string]map[string]bool)
	resolved := make(map[string]string)
	for _, c := range classifications {
		name := strings.TrimSpace(c.Name)
		if targets[name] == nil {
			targets[name] = make(map[string]bool)
		}
		targets[name][strings.TrimSpace(c.FullClassification)] = true
		resolved[name] = strings.TrimSpace(c.FullClassification)
	}

	var conflicting []string
	for _, row := range ds.Rows {
		group := strings.TrimSpace(row["Asset Group"])
		if strings.EqualFold(group, "panels") {
			continue
		}
		if len(targets[group]) > 1 {
			conflicting = append(conflicting, strings.TrimSpace(row["QR Code"]))
		}
	}
	if len(conflicting) > 0 {
		return &DuplicateClassificationError{QRCodes: conflicting}
	}

	for _, row := range ds.Rows {
		group := strings.TrimSpace(row["Asset Group"])
		if strings.EqualFold(group, "panels") {
			row["Asset Group"] = internal.PanelsClassification
			continue
		}
		if full, ok := resolved[group]; ok && full != "" {
			row["Asset Group"] = full
		}
	}
	return nil
}

func renameForDownstream(ds dataset.Dataset) dataset.Dataset {
	out := dataset.New(nil)
	for _, c := range ds.Columns {
		name := c
		if renamed, ok := internal.RenameMap[c]; ok {
			name = renamed
		}
		out.Columns = append(out.Columns, name)
	}
	for _, row := range ds.Rows {
		nr := make(dataset.Row, len(row))
		for k, v := range row {
			if renamed, ok := internal.RenameMap[k]; ok {
				k = renamed
			}
			nr[k] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// annotateUnit adds a sibling "(UoM)" column carrying the unit symbol for
// every row with a non-blank value.
func annotateUnit(ds *dataset.Dataset, column, unit string) {
	if !ds.HasColumn(column) {
		return
	}
	uomCol := column + " (UoM)"
	for _, row := range ds.Rows {
		if strings.TrimSpace(row[column]) != "" {
			row[uomCol] = unit
		} else {
			row[uomCol] = ""
		}
	}
	ds.Columns = append(ds.Columns, uomCol)
}

func constColNames() []string {
	names := make([]string, 0, len(internal.ConstCols))
	for name := range internal.ConstCols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
