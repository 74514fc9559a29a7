package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sdi/internal"
	"sdi/internal/dataset"
)

const packageIDPrefix = "SDI-"

// DuplicateCodesError rejects an append whose QR codes are already ledgered
// and no explicit replace was requested.
type DuplicateCodesError struct {
	Codes []string
}

func (e *DuplicateCodesError) Error() string {
	return fmt.Sprintf("QR codes already packaged: %s", strings.Join(e.Codes, ", "))
}

// Codes returns the trimmed QR codes present in the ledger regardless of
// export status. A missing ledger table means no collisions are possible.
func (d *DB) Codes() (map[string]struct{}, error) {
	ok, err := d.tableExists(TableLedger)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{})
	if !ok {
		return out, nil
	}

	rows, err := d.conn.Query(`SELECT DISTINCT "QR Code" FROM sdi_print_out`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var code sql.NullString
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		if c := strings.TrimSpace(code.String); c != "" {
			out[c] = struct{}{}
		}
	}
	return out, rows.Err()
}

// LedgerDataset returns every ledger row with the full ledger column set.
// A missing table yields an empty, schema-correct dataset.
func (d *DB) LedgerDataset() (dataset.Dataset, error) {
	ok, err := d.tableExists(TableLedger)
	if err != nil {
		return dataset.Dataset{}, err
	}
	if !ok {
		return dataset.New(internal.PrintOutCols), nil
	}

	ds, err := d.readQuery(`SELECT * FROM sdi_print_out`)
	if err != nil {
		return dataset.Dataset{}, err
	}
	return ds.Normalize(internal.PrintOutCols), nil
}

// AppendPackage commits one packaging action: ledger table creation and
// migration, the optional replace delete, the package-id allocation and the
// row inserts all ride the same transaction, so the action either fully
// applies or leaves the ledger untouched. Returns the allocated package id.
func (d *DB) AppendPackage(rows dataset.Dataset, now time.Time, replace bool) (string, error) {
	if rows.Empty() {
		return "", errors.New("append package: no rows")
	}
	if err := d.CheckWritable(); err != nil {
		return "", err
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if err := ensureLedgerTable(tx); err != nil {
		return "", err
	}

	codes := rows.Values("QR Code")
	if replace {
		if err := deleteCodes(tx, codes); err != nil {
			return "", err
		}
	} else {
		dups, err := existingCodes(tx, codes)
		if err != nil {
			return "", err
		}
		if len(dups) > 0 {
			return "", &DuplicateCodesError{Codes: dups}
		}
	}

	packageID, err := allocatePackageID(tx)
	if err != nil {
		return "", err
	}

	quoted := make([]string, len(internal.PrintOutCols))
	marks := make([]string, len(internal.PrintOutCols))
	for i, c := range internal.PrintOutCols {
		quoted[i] = fmt.Sprintf("%q", c)
		marks[i] = "?"
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO sdi_print_out (%s) VALUES (%s)`,
		strings.Join(quoted, ", "), strings.Join(marks, ", "),
	))
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	date := now.Format("2006-01-02")
	clock := now.Format("15:04:05")
	for _, row := range rows.Rows {
		args := make([]any, 0, len(internal.PrintOutCols))
		for _, c := range internal.MasterCols {
			args = append(args, row[c])
		}
		args = append(args, packageID, "0", date, clock)
		if _, err := stmt.Exec(args...); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return packageID, nil
}

// MarkExported flips print_out to 1 for the given QR codes. Idempotent.
func (d *DB) MarkExported(codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	if err := d.CheckWritable(); err != nil {
		return 0, err
	}

	marks := strings.Repeat("?,", len(codes))
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	res, err := d.conn.Exec(fmt.Sprintf(
		`UPDATE sdi_print_out SET print_out = '1' WHERE "QR Code" IN (%s)`, marks[:len(marks)-1],
	), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExcludePackage deletes a package's rows, returning them to the unpackaged
// pool. Reports how many rows were removed; an unknown id removes 0 and is
// not an error. The package counter is never decremented.
func (d *DB) ExcludePackage(packageID string) (int64, error) {
	ok, err := d.tableExists(TableLedger)
	if err != nil || !ok {
		return 0, err
	}
	if err := d.CheckWritable(); err != nil {
		return 0, err
	}

	res, err := d.conn.Exec(`DELETE FROM sdi_print_out WHERE id_print_out = ?`, packageID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func ensureLedgerTable(tx *sql.Tx) error {
	cols := make([]string, len(internal.PrintOutCols))
	for i, c := range internal.PrintOutCols {
		cols[i] = fmt.Sprintf("%q TEXT", c)
	}
	if _, err := tx.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS sdi_print_out (%s)`, strings.Join(cols, ", "),
	)); err != nil {
		return err
	}

	// Ledgers written by earlier pipeline variants predate the package-id
	// column; bring them forward inside the same transaction.
	has, err := columnExists(tx, TableLedger, internal.ColPackageID)
	if err != nil {
		return err
	}
	if !has {
		if _, err := tx.Exec(`ALTER TABLE sdi_print_out ADD COLUMN "id_print_out" TEXT DEFAULT ''`); err != nil {
			return err
		}
	}
	return nil
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func existingCodes(tx *sql.Tx, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	marks := strings.Repeat("?,", len(codes))
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	rows, err := tx.Query(fmt.Sprintf(
		`SELECT DISTINCT "QR Code" FROM sdi_print_out WHERE TRIM("QR Code") IN (%s)`, marks[:len(marks)-1],
	), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, strings.TrimSpace(code))
	}
	return out, rows.Err()
}

func deleteCodes(tx *sql.Tx, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	marks := strings.Repeat("?,", len(codes))
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	_, err := tx.Exec(fmt.Sprintf(
		`DELETE FROM sdi_print_out WHERE TRIM("QR Code") IN (%s)`, marks[:len(marks)-1],
	), args...)
	return err
}

// allocatePackageID atomically bumps the persisted counter and formats the
// new identifier. The first allocation seeds the counter from the highest
// identifier already in the ledger, so ids stay strictly increasing across
// ledger rebuilds; exclusion never hands a number back.
func allocatePackageID(tx *sql.Tx) (string, error) {
	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS sdi_package_seq (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  last_number INTEGER NOT NULL
)`); err != nil {
		return "", err
	}

	var last int
	err := tx.QueryRow(`SELECT last_number FROM sdi_package_seq WHERE id = 1`).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		last, err = maxLedgerPackageNumber(tx)
		if err != nil {
			return "", err
		}
		if _, err := tx.Exec(`INSERT INTO sdi_package_seq (id, last_number) VALUES (1, ?)`, last); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	next := last + 1
	if _, err := tx.Exec(`UPDATE sdi_package_seq SET last_number = ? WHERE id = 1`, next); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", packageIDPrefix, next), nil
}

func maxLedgerPackageNumber(tx *sql.Tx) (int, error) {
	rows, err := tx.Query(`SELECT DISTINCT id_print_out FROM sdi_print_out`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	max := 0
	for rows.Next() {
		var id sql.NullString
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		suffix := strings.TrimPrefix(strings.TrimSpace(id.String), packageIDPrefix)
		if suffix == strings.TrimSpace(id.String) {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, rows.Err()
}
