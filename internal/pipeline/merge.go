package pipeline

import (
	"strings"

	"sdi/internal"
	"sdi/internal/dataset"
	"sdi/internal/storage"
)

// The electrical capture table labels the asset tag differently.
const electricalTagCol = "UBC Asset Tag"

// SourceDataset merges the mechanical and electrical capture tables into one
// canonical record set: approval filter, tag-column harmonization, optional
// building filter, mechanical rows before electrical rows. Read failures
// propagate unchanged; there are no silent partial results.
func (s *Service) SourceDataset(buildingCode string) (dataset.Dataset, error) {
	me, err := s.db.ReadTable(storage.TableMechanical)
	if err != nil {
		return dataset.Dataset{}, err
	}
	el, err := s.db.ReadTable(storage.TableElectrical)
	if err != nil {
		return dataset.Dataset{}, err
	}

	me = filterApproved(me)
	el = filterApproved(el)

	if buildingCode != "" {
		byBuilding := func(row dataset.Row) bool { return row["Building"] == buildingCode }
		me = me.Filter(byBuilding)
		el = el.Filter(byBuilding)
	}

	el = el.RenameColumn(electricalTagCol, "UBC Tag")

	me = me.Normalize(internal.MasterCols)
	el = el.Normalize(internal.MasterCols)

	return me.Concat(el).Normalize(internal.MasterCols), nil
}

// filterApproved keeps rows whose approval flag stringifies to "1". Sources
// without the column pass through whole; numeric and text-typed columns read
// the same because all values arrive as text.
func filterApproved(ds dataset.Dataset) dataset.Dataset {
	if !ds.HasColumn("Approved") {
		return ds
	}
	return ds.Filter(func(row dataset.Row) bool {
		return strings.TrimSpace(row["Approved"]) == "1"
	})
}
