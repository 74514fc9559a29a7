package dataset

import (
	"reflect"
	"testing"
)

var testCols = []string{"QR Code", "Building", "Description"}

func TestNormalizeFillsMissingColumns(t *testing.T) {
	ds := Dataset{
		Columns: []string{"QR Code"},
		Rows:    []Row{{"QR Code": "Q1"}},
	}
	got := ds.Normalize(testCols)

	if !reflect.DeepEqual(got.Columns, testCols) {
		t.Fatalf("columns = %v", got.Columns)
	}
	if got.Rows[0]["Building"] != "" || got.Rows[0]["Description"] != "" {
		t.Fatalf("missing columns not blank: %v", got.Rows[0])
	}
}

func TestNormalizeDropsExtraColumns(t *testing.T) {
	ds := Dataset{
		Columns: []string{"QR Code", "Approved"},
		Rows:    []Row{{"QR Code": "Q1", "Approved": "1"}},
	}
	got := ds.Normalize(testCols)

	if _, ok := got.Rows[0]["Approved"]; ok {
		t.Fatal("extra column survived normalization")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	ds := Dataset{
		Columns: testCols,
		Rows:    []Row{{"QR Code": "Q1", "Building": "B1", "Description": "Pump"}},
	}
	once := ds.Normalize(testCols)
	twice := once.Normalize(testCols)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent: %v vs %v", once, twice)
	}
}

func TestDedupeColumnsKeepsFirst(t *testing.T) {
	got := DedupeColumns([]string{"QR Code", "Building", "QR Code"})
	want := []string{"QR Code", "Building"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestConcatPreservesOrder(t *testing.T) {
	m := Dataset{Columns: testCols, Rows: []Row{{"QR Code": "m1"}, {"QR Code": "m2"}}}
	e := Dataset{Columns: testCols, Rows: []Row{{"QR Code": "e1"}}}

	got := m.Concat(e)
	var codes []string
	for _, row := range got.Rows {
		codes = append(codes, row["QR Code"])
	}
	if !reflect.DeepEqual(codes, []string{"m1", "m2", "e1"}) {
		t.Fatalf("order = %v", codes)
	}
}

func TestRenameColumn(t *testing.T) {
	ds := Dataset{
		Columns: []string{"UBC Asset Tag", "Building"},
		Rows:    []Row{{"UBC Asset Tag": "T1", "Building": "B1"}},
	}

	got := ds.RenameColumn("UBC Asset Tag", "UBC Tag")
	if !got.HasColumn("UBC Tag") || got.HasColumn("UBC Asset Tag") {
		t.Fatalf("columns = %v", got.Columns)
	}
	if got.Rows[0]["UBC Tag"] != "T1" {
		t.Fatalf("value = %q", got.Rows[0]["UBC Tag"])
	}

	// Canonical name already present: no-op.
	both := Dataset{Columns: []string{"UBC Asset Tag", "UBC Tag"}, Rows: nil}
	if kept := both.RenameColumn("UBC Asset Tag", "UBC Tag"); !kept.HasColumn("UBC Asset Tag") {
		t.Fatal("rename should be a no-op when the target column exists")
	}
}
