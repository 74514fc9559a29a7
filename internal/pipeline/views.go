package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"sdi/internal"
	"sdi/internal/dataset"
	"sdi/internal/util"
)

// Buildings returns the building picker list: codes referenced by either
// source table, resolved to display names through the Buildings lookup.
// Without the lookup table the codes are returned with synthesized names.
func (s *Service) Buildings() ([]internal.Building, error) {
	codes, err := s.db.SourceBuildingCodes()
	if err != nil {
		return nil, err
	}

	lookup, err := s.db.Buildings()
	if err != nil {
		return nil, err
	}

	if lookup == nil {
		sort.Strings(codes)
		out := make([]internal.Building, 0, len(codes))
		for _, c := range codes {
			out = append(out, internal.Building{Code: c, Name: fmt.Sprintf("Building %s", c)})
		}
		return out, nil
	}

	referenced := make(map[string]bool, len(codes))
	for _, c := range codes {
		referenced[c] = true
	}
	var out []internal.Building
	for _, b := range lookup {
		if referenced[b.Code] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Unpackaged derives the not-yet-packaged view: merged source rows minus any
// QR code already in the ledger, enriched with building display names and
// space numbers. Lookup failures degrade to a warning so a flaky lookup
// table does not take the dashboard down; an empty result is schema-correct.
func (s *Service) Unpackaged(buildingCode string) (dataset.Dataset, []internal.Flash) {
	var flashes []internal.Flash

	ds, err := s.SourceDataset(buildingCode)
	if err != nil {
		s.log.Error("unpackaged view: source read failed", zap.Error(err))
		return dataset.New(internal.MasterCols), []internal.Flash{
			{Level: internal.FlashDanger, Message: fmt.Sprintf("Could not load asset data: %v", err)},
		}
	}

	for _, row := range ds.Rows {
		row["QR Code"] = strings.TrimSpace(row["QR Code"])
	}

	ledgered, err := s.db.Codes()
	if err != nil {
		s.log.Warn("unpackaged view: ledger read failed", zap.Error(err))
		flashes = append(flashes, internal.Flash{
			Level:   internal.FlashWarning,
			Message: fmt.Sprintf("Could not read the export ledger: %v", err),
		})
		ledgered = map[string]struct{}{}
	}
	if len(ledgered) > 0 {
		ds = ds.Filter(func(row dataset.Row) bool {
			_, packaged := ledgered[row["QR Code"]]
			return !packaged
		})
	}

	ds, warn := s.enrich(ds)
	flashes = append(flashes, warn...)

	return ds.Normalize(internal.MasterCols), flashes
}

// Packaged lists the ledger, optionally narrowed to one building and/or one
// package. The building filter matches the stored code or its resolved
// display name, since the ledger denormalizes at time of write.
func (s *Service) Packaged(buildingCode, packageID string) (dataset.Dataset, []internal.Flash) {
	ds, err := s.db.LedgerDataset()
	if err != nil {
		s.log.Error("packaged view: ledger read failed", zap.Error(err))
		return dataset.New(internal.PrintOutCols), []internal.Flash{
			{Level: internal.FlashDanger, Message: fmt.Sprintf("Could not load packaged assets: %v", err)},
		}
	}

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

	ds, flashes := s.enrich(ds)

	return ds.Normalize(internal.PrintOutCols), flashes
}

// enrich resolves building codes to display names and location text to space
// numbers. Lookup misses keep the original values.
func (s *Service) enrich(ds dataset.Dataset) (dataset.Dataset, []internal.Flash) {
	var flashes []internal.Flash

	buildings, err := s.db.Buildings()
	if err != nil {
		s.log.Warn("building lookup failed", zap.Error(err))
		flashes = append(flashes, internal.Flash{
			Level:   internal.FlashWarning,
			Message: fmt.Sprintf("Could not resolve building names: %v", err),
		})
	}
	names := make(map[string]string, len(buildings))
	for _, b := range buildings {
		names[b.Code] = b.Name
	}

	spaces, err := s.db.Spaces()
	if err != nil {
		s.log.Warn("space lookup failed", zap.Error(err))
		flashes = append(flashes, internal.Flash{
			Level:   internal.FlashWarning,
			Message: fmt.Sprintf("Could not resolve space numbers: %v", err),
		})
	}

	for _, row := range ds.Rows {
		if name, ok := names[strings.TrimSpace(row["Building"])]; ok && name != "" {
			row["Building"] = name
		}
		if space, ok := spaces[strings.TrimSpace(row["Location"])]; ok && space != "" {
			row["Location"] = util.SpaceNumber(space)
		}
	}

	return ds, flashes
}

func (s *Service) buildingName(code string) string {
	buildings, err := s.db.Buildings()
	if err != nil {
		return ""
	}
	for _, b := range buildings {
		if b.Code == code {
			return b.Name
		}
	}
	return ""
}
