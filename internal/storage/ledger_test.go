package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sdi/internal"
	"sdi/internal/dataset"
)

var packagedAt = time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "QR_codes.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func assetRows(codes ...string) dataset.Dataset {
	ds := dataset.New(internal.MasterCols)
	for _, code := range codes {
		row := dataset.Row{}
		for _, col := range internal.MasterCols {
			row[col] = ""
		}
		row["QR Code"] = code
		row["Building"] = "B1"
		row["Description"] = "Pump"
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func TestOpenMissingStore(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	require.ErrorIs(t, err, ErrStoreNotFound)
}

func TestCodesEmptyWithoutLedger(t *testing.T) {
	db := testDB(t)

	codes, err := db.Codes()
	require.NoError(t, err)
	require.Empty(t, codes)

	ds, err := db.LedgerDataset()
	require.NoError(t, err)
	require.Equal(t, internal.PrintOutCols, ds.Columns)
	require.Empty(t, ds.Rows)
}

func TestAppendAllocatesSequentialIDs(t *testing.T) {
	db := testDB(t)

	for i, code := range []string{"Q1", "Q2", "Q3"} {
		id, err := db.AppendPackage(assetRows(code), packagedAt, false)
		require.NoError(t, err)
		require.Equal(t, []string{"SDI-00001", "SDI-00002", "SDI-00003"}[i], id)
	}

	codes, err := db.Codes()
	require.NoError(t, err)
	require.Len(t, codes, 3)
	require.Contains(t, codes, "Q2")
}

func TestAppendStampsLedgerRows(t *testing.T) {
	db := testDB(t)

	id, err := db.AppendPackage(assetRows("Q1"), packagedAt, false)
	require.NoError(t, err)

	ds, err := db.LedgerDataset()
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)

	row := ds.Rows[0]
	require.Equal(t, id, row[internal.ColPackageID])
	require.Equal(t, "0", row[internal.ColPrintOut])
	require.Equal(t, "2026-08-31", row[internal.ColDate])
	require.Equal(t, "14:30:05", row[internal.ColTime])
	require.Equal(t, "Pump", row["Description"])
}

func TestAppendRejectsDuplicateCodes(t *testing.T) {
	db := testDB(t)

	_, err := db.AppendPackage(assetRows("Q1", "Q2"), packagedAt, false)
	require.NoError(t, err)

	_, err = db.AppendPackage(assetRows("Q2", "Q3"), packagedAt, false)
	var dup *DuplicateCodesError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, []string{"Q2"}, dup.Codes)

	// The rejected append left nothing behind.
	ds, err := db.LedgerDataset()
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
}

func TestReplaceSupersedesExistingPackage(t *testing.T) {
	db := testDB(t)

	first, err := db.AppendPackage(assetRows("Q1"), packagedAt, false)
	require.NoError(t, err)

	second, err := db.AppendPackage(assetRows("Q1"), packagedAt, true)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ds, err := db.LedgerDataset()
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	require.Equal(t, second, ds.Rows[0][internal.ColPackageID])
}

func TestExcludeDoesNotReuseIDs(t *testing.T) {
	db := testDB(t)

	_, err := db.AppendPackage(assetRows("Q1"), packagedAt, false)
	require.NoError(t, err)
	second, err := db.AppendPackage(assetRows("Q2"), packagedAt, false)
	require.NoError(t, err)
	require.Equal(t, "SDI-00002", second)

	deleted, err := db.ExcludePackage(second)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	// The excluded rows are back in the unpackaged pool.
	codes, err := db.Codes()
	require.NoError(t, err)
	require.NotContains(t, codes, "Q2")

	// The counter never hands the number back.
	next, err := db.AppendPackage(assetRows("Q3"), packagedAt, false)
	require.NoError(t, err)
	require.Equal(t, "SDI-00003", next)

	// Unknown package ids remove nothing and are not an error.
	deleted, err = db.ExcludePackage("SDI-99999")
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)
}

func TestCounterBootstrapsFromLedger(t *testing.T) {
	db := testDB(t)

	_, err := db.AppendPackage(assetRows("Q1"), packagedAt, false)
	require.NoError(t, err)

	// Simulate a ledger written by an earlier deployment: a high package id
	// on disk and no counter row yet.
	_, err = db.conn.Exec(`UPDATE sdi_print_out SET id_print_out = 'SDI-00007'`)
	require.NoError(t, err)
	_, err = db.conn.Exec(`DELETE FROM sdi_package_seq`)
	require.NoError(t, err)

	id, err := db.AppendPackage(assetRows("Q2"), packagedAt, false)
	require.NoError(t, err)
	require.Equal(t, "SDI-00008", id)
}

func TestMarkExportedIdempotent(t *testing.T) {
	db := testDB(t)

	_, err := db.AppendPackage(assetRows("Q1", "Q2"), packagedAt, false)
	require.NoError(t, err)

	affected, err := db.MarkExported([]string{"Q1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	// Marking again is safe.
	affected, err = db.MarkExported([]string{"Q1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	ds, err := db.LedgerDataset()
	require.NoError(t, err)
	status := map[string]string{}
	for _, row := range ds.Rows {
		status[row["QR Code"]] = row[internal.ColPrintOut]
	}
	require.Equal(t, "1", status["Q1"])
	require.Equal(t, "0", status["Q2"])
}
