package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"sdi/internal"
	"sdi/internal/dataset"
)

var (
	// ErrStoreNotFound means the capture database file is missing.
	ErrStoreNotFound = errors.New("store not found")
	// ErrNotWritable means the database location rejects writes; surfaced
	// before any mutation is attempted.
	ErrNotWritable = errors.New("store not writable")
)

const (
	TableMechanical = "sdi_dataset"
	TableElectrical = "sdi_dataset_EL"
	TableBuildings  = "Buildings"
	TableSpaces     = "Spaces"
	TableAssetGroup = "Asset_Group"
	TableLedger     = "sdi_print_out"
	TableSequence   = "sdi_package_seq"
)

type DB struct {
	conn *sql.DB
	path string
}

// Open connects to an existing capture database. The file must already
// exist: this tool reconciles upstream captures, it does not create them.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Bounded wait on a locked store; a timeout surfaces to the operator as
	// a retryable failure, never a crash.
	if _, err := conn.Exec(`PRAGMA busy_timeout = 10000;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &DB{conn: conn, path: path}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// CheckWritable probes the database location before any mutation, so a
// read-only share fails the action fast instead of mid-transaction.
func (d *DB) CheckWritable() error {
	dir := filepath.Dir(d.path)
	probe, err := os.CreateTemp(dir, ".sdi-write-probe-*")
	if err != nil {
		return fmt.Errorf("%w: folder %s", ErrNotWritable, dir)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotWritable, d.path)
	}
	return f.Close()
}

func (d *DB) tableExists(name string) (bool, error) {
	var found string
	err := d.conn.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, name,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// readQuery runs an arbitrary SELECT and materializes it as a dataset, every
// value rendered as text. Duplicate result columns keep the first occurrence.
func (d *DB) readQuery(query string, args ...any) (dataset.Dataset, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return dataset.Dataset{}, err
	}
	defer rows.Close()

	rawCols, err := rows.Columns()
	if err != nil {
		return dataset.Dataset{}, err
	}

	out := dataset.New(dataset.DedupeColumns(rawCols))
	for rows.Next() {
		values := make([]sql.NullString, len(rawCols))
		scan := make([]any, len(rawCols))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return dataset.Dataset{}, err
		}

		row := make(dataset.Row, len(rawCols))
		for i, c := range rawCols {
			if _, dup := row[c]; dup {
				continue
			}
			if values[i].Valid {
				row[c] = values[i].String
			} else {
				row[c] = ""
			}
		}
		out.Rows = append(out.Rows, row)
	}

	return out, rows.Err()
}

// ReadTable loads a whole source table as a dataset.
func (d *DB) ReadTable(name string) (dataset.Dataset, error) {
	return d.readQuery(fmt.Sprintf(`SELECT * FROM %q`, name))
}

// Buildings returns the building lookup rows. When the lookup table is
// absent the caller falls back to the raw codes.
func (d *DB) Buildings() ([]internal.Building, error) {
	ok, err := d.tableExists(TableBuildings)
	if err != nil || !ok {
		return nil, err
	}

	rows, err := d.conn.Query(`SELECT Code, Name FROM Buildings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Building
	for rows.Next() {
		var b internal.Building
		var code, name sql.NullString
		if err := rows.Scan(&code, &name); err != nil {
			return nil, err
		}
		b.Code, b.Name = code.String, name.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// Spaces returns the optional location to space-label lookup, keyed by the
// raw captured location text. Absent table means no enrichment.
func (d *DB) Spaces() (map[string]string, error) {
	ok, err := d.tableExists(TableSpaces)
	if err != nil || !ok {
		return nil, err
	}

	rows, err := d.conn.Query(`SELECT Location, Space FROM Spaces`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var loc, space sql.NullString
		if err := rows.Scan(&loc, &space); err != nil {
			return nil, err
		}
		out[loc.String] = space.String
	}
	return out, rows.Err()
}

// AssetGroups returns the classification mapping rows. Duplicate short names
// are returned as-is; the transformer enforces uniqueness per batch.
func (d *DB) AssetGroups() ([]internal.Classification, error) {
	ok, err := d.tableExists(TableAssetGroup)
	if err != nil || !ok {
		return nil, err
	}

	rows, err := d.conn.Query(`SELECT Name, "Full Classification" FROM Asset_Group`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Classification
	for rows.Next() {
		var name, full sql.NullString
		if err := rows.Scan(&name, &full); err != nil {
			return nil, err
		}
		out = append(out, internal.Classification{Name: name.String, FullClassification: full.String})
	}
	return out, rows.Err()
}

// SourceBuildingCodes returns the distinct building codes referenced by
// either source table.
func (d *DB) SourceBuildingCodes() ([]string, error) {
	ds, err := d.readQuery(`
SELECT DISTINCT Building FROM sdi_dataset
UNION
SELECT DISTINCT Building FROM sdi_dataset_EL`)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, v := range ds.Values("Building") {
		if v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
