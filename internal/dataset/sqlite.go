package dataset

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-gota/gota/series"
	_ "github.com/mattn/go-sqlite3"
)

// TableName is the table a dataset is read from and exported to in SQLite files
const TableName = "dataset"

// ReadSQLite loads the dataset table from a SQLite database file
func ReadSQLite(path string) (*Dataset, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Verify the dataset table exists before querying it
	var count int
	err = db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?", TableName).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to read database schema: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("database has no %q table", TableName)
	}

	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s", quoteIdent(TableName)))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	records := [][]string{header}
	for rows.Next() {
		values := make([]sql.NullString, len(header))
		dest := make([]interface{}, len(header))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record := make([]string, len(header))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return FromRecords(records)
}

// WriteSQLite writes the dataset into a new table in the SQLite file at path
func (d *Dataset) WriteSQLite(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	names := d.Names()
	cols := make([]series.Series, len(names))
	defs := make([]string, len(names))
	for i, name := range names {
		cols[i] = d.df.Col(name)
		defs[i] = quoteIdent(name) + " " + sqlType(cols[i].Type())
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(TableName), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(TableName), placeholders))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(names))
	for i := 0; i < d.Nrow(); i++ {
		for j, s := range cols {
			args[j] = sqlValue(s, i)
		}
		if _, err := stmt.Exec(args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func sqlType(t series.Type) string {
	switch t {
	case series.Int:
		return "INTEGER"
	case series.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

func sqlValue(s series.Series, i int) interface{} {
	e := s.Elem(i)
	if e.IsNA() {
		return nil
	}
	switch s.Type() {
	case series.Int:
		if n, err := e.Int(); err == nil {
			return int64(n)
		}
	case series.Float:
		return e.Float()
	}
	return e.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
