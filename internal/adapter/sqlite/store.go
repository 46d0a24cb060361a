// Package sqlite persists the final climate table in an embedded SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"

	_ "modernc.org/sqlite"
)

// Store writes the final table into a single SQLite table, replacing it on
// every export.
type Store struct {
	db    *sql.DB
	table string
}

// Open opens (or creates) the database file at path.
func Open(path, table string) (*Store, error) {
	if table == "" {
		return nil, errors.New("sqlite: empty table name")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return &Store{db: db, table: table}, nil
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "sqlite" }

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Export drops any previous table, recreates it from the table's columns,
// and inserts every row in one transaction. University is stored as TEXT and
// every other column as REAL.
func (s *Store) Export(ctx context.Context, table domain.Table) (err error) {
	cols := table.Columns()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(s.table)); err != nil {
		return fmt.Errorf("drop %s: %w", s.table, err)
	}
	if _, err = tx.ExecContext(ctx, createStatement(s.table, cols)); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(s.table, cols))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		vals := row.Values()
		args := make([]any, 0, len(vals)+1)
		args = append(args, row.University)
		for _, v := range vals {
			args = append(args, v)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %q: %w", row.University, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReadTable loads the stored table back in insertion order. Trimester labels
// are recovered from the column names.
func (s *Store) ReadTable(ctx context.Context) (domain.Table, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(s.table)+" ORDER BY rowid")
	if err != nil {
		return domain.Table{}, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return domain.Table{}, err
	}
	if len(cols) < 3 {
		return domain.Table{}, fmt.Errorf("table %s has %d columns", s.table, len(cols))
	}
	labels := make([]string, 0, len(cols)-3)
	for _, c := range cols[1 : len(cols)-2] {
		labels = append(labels, strings.TrimSuffix(c, " Avg Temp"))
	}

	out := domain.Table{Trimesters: labels}
	for rows.Next() {
		var name string
		nums := make([]float64, len(cols)-1)
		dest := make([]any, 0, len(cols))
		dest = append(dest, &name)
		for i := range nums {
			dest = append(dest, &nums[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return domain.Table{}, fmt.Errorf("scan: %w", err)
		}
		n := len(labels)
		out.Rows = append(out.Rows, domain.FinalRow{
			UniversityID: domain.NewEntryID(name),
			University:   name,
			AvgTemps:     nums[:n],
			TotalSnow:    nums[n],
			TotalRain:    nums[n+1],
		})
	}
	return out, rows.Err()
}

func createStatement(table string, cols []string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := "REAL"
		if i == 0 {
			typ = "TEXT"
		}
		defs[i] = quoteIdent(c) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertStatement(table string, cols []string) string {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
