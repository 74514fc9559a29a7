package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"sdi/internal"
	"sdi/internal/dataset"
)

// ExportResult reports one downstream export action. File is nil when the
// action was blocked (validation, conflict, nothing to do); the flashes say
// why.
type ExportResult struct {
	File    *internal.ExportFile
	Rows    int
	Flashes []internal.Flash
}

func exportFlash(level internal.FlashLevel, message string) ExportResult {
	return ExportResult{Flashes: []internal.Flash{{Level: level, Message: message}}}
}

// Export produces the downstream import workbook for the selected ledger
// rows and marks them sent. Rows already sent are only re-exported after an
// explicit force; without it the conflict comes back as a re-send
// confirmation. The ledger is updated only after the workbook is produced,
// so a failed write leaves nothing marked.
func (s *Service) Export(buildingCode, packageID string, force bool, now time.Time) (ExportResult, error) {
	ds, err := s.db.LedgerDataset()
	if err != nil {
		return ExportResult{}, err
	}
	ds = s.filterLedger(ds, buildingCode, packageID)

	if ds.Empty() {
		return exportFlash(internal.FlashInfo, "No packaged assets to export."), nil
	}

	if !force {
		already := ds.Filter(func(row dataset.Row) bool {
			return strings.TrimSpace(row[internal.ColPrintOut]) == "1"
		})
		if !already.Empty() {
			codes := distinct(already.Values("QR Code"))
			return exportFlash(internal.FlashConfirmResend, "RESEND_CONFIRM:"+strings.Join(codes, ",")), nil
		}
	}

	toExport := ds
	if !force {
		toExport = ds.Filter(func(row dataset.Row) bool {
			return strings.TrimSpace(row[internal.ColPrintOut]) == "0"
		})
	}
	if toExport.Empty() {
		return exportFlash(internal.FlashInfo, "All packaged assets have already been exported."), nil
	}

	classifications, err := s.db.AssetGroups()
	if err != nil {
		return ExportResult{}, err
	}

	out, err := Transform(toExport, classifications, now)
	var dup *DuplicateClassificationError
	if errors.As(err, &dup) {
		return exportFlash(internal.FlashDanger, dup.Error()), nil
	}
	if err != nil {
		return ExportResult{}, err
	}

	f, err := FillTemplate(s.cfg.TemplatePath, s.cfg.HeaderRow, s.cfg.StartRow, out)
	if err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		_ = f.Close()
		return ExportResult{}, err
	}
	_ = f.Close()

	label := packageID
	if label == "" {
		if ids := distinct(toExport.Values(internal.ColPackageID)); len(ids) == 1 {
			label = ids[0]
		}
	}
	name := OutputName(s.cfg.FilePrefix, label, now, out, "Property")

	codes := distinct(toExport.Values("QR Code"))
	if _, err := s.db.MarkExported(codes); err != nil {
		return ExportResult{}, err
	}

	s.log.Info("export produced",
		zap.String("file", name),
		zap.String("package_id", label),
		zap.Int("rows", len(toExport.Rows)))

	result := ExportResult{
		File: &internal.ExportFile{Name: name, Data: buf.Bytes()},
		Rows: len(toExport.Rows),
		Flashes: []internal.Flash{{
			Level:   internal.FlashSuccess,
			Message: fmt.Sprintf("Exported %d assets to %s.", len(toExport.Rows), name),
		}},
	}
	return result, nil
}

// WriteOutput stores a produced workbook in the shared output directory,
// suffixing the name rather than overwriting a collision.
func (s *Service) WriteOutput(file *internal.ExportFile) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", err
	}
	path := UniquePath(filepath.Join(s.cfg.OutputDir, file.Name))
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// RunBatch is the legacy one-shot mode: every not-yet-exported ledger row is
// transformed and written into the output directory, either as one workbook
// or one per property, then the loaded rows are marked exported. Returns the
// saved paths and the row count.
func (s *Service) RunBatch(perProperty bool, now time.Time) ([]string, int, error) {
	ds, err := s.db.LedgerDataset()
	if err != nil {
		return nil, 0, err
	}
	ds = ds.Filter(func(row dataset.Row) bool {
		return strings.TrimSpace(row[internal.ColPrintOut]) == "0"
	})
	if ds.Empty() {
		return nil, 0, nil
	}

	classifications, err := s.db.AssetGroups()
	if err != nil {
		return nil, 0, err
	}
	out, err := Transform(ds, classifications, now)
	if err != nil {
		return nil, 0, err
	}

	groups := []dataset.Dataset{out}
	if perProperty {
		groups = groupByColumn(out, "Property")
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, 0, err
	}

	var paths []string
	for _, group := range groups {
		f, err := FillTemplate(s.cfg.TemplatePath, s.cfg.HeaderRow, s.cfg.StartRow, group)
		if err != nil {
			return nil, 0, err
		}
		name := OutputName(s.cfg.FilePrefix, "", now, group, "Property")
		path := UniquePath(filepath.Join(s.cfg.OutputDir, name))
		if err := f.SaveAs(path); err != nil {
			_ = f.Close()
			return nil, 0, err
		}
		_ = f.Close()
		paths = append(paths, path)
	}

	if _, err := s.db.MarkExported(distinct(ds.Values("QR Code"))); err != nil {
		return nil, 0, err
	}

	return paths, len(ds.Rows), nil
}

func (s *Service) filterLedger(ds dataset.Dataset, buildingCode, packageID string) dataset.Dataset {
	if buildingCode != "" {
		display := s.buildingName(buildingCode)
		ds = ds.Filter(func(row dataset.Row) bool {
			b := strings.TrimSpace(row["Building"])
			return b == buildingCode || (display != "" && b == display)
		})
	}
	if packageID != "" {
		ds = ds.Filter(func(row dataset.Row) bool {
			return strings.TrimSpace(row[internal.ColPackageID]) == packageID
		})
	}
	return ds
}

// groupByColumn splits a dataset by one column's trimmed value, groups
// ordered by value, rows keeping their order within each group.
func groupByColumn(ds dataset.Dataset, column string) []dataset.Dataset {
	if !ds.HasColumn(column) {
		return []dataset.Dataset{ds}
	}
	var keys []string
	byKey := make(map[string]*dataset.Dataset)
	for _, row := range ds.Rows {
		key := strings.TrimSpace(row[column])
		group, ok := byKey[key]
		if !ok {
			g := dataset.New(ds.Columns)
			byKey[key] = &g
			group = &g
			keys = append(keys, key)
		}
		group.Rows = append(group.Rows, row)
	}
	sort.Strings(keys)

	out := make([]dataset.Dataset, 0, len(keys))
	for _, key := range keys {
		out = append(out, *byKey[key])
	}
	return out
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
