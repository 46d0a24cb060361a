// Package csvfile writes the final climate table to a comma-delimited file
// and reads it back.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
)

const avgTempSuffix = " Avg Temp"

// Writer exports a table to a CSV file, replacing any previous file.
type Writer struct {
	path string
}

// NewWriter creates a Writer for path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "csv" }

// Export writes a header row followed by one row per university. There is
// no index column.
func (w *Writer) Export(_ context.Context, table domain.Table) (err error) {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", w.path, cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(table.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range table.Rows {
		if err := cw.Write(record(row)); err != nil {
			return fmt.Errorf("write row %q: %w", row.University, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(row domain.FinalRow) []string {
	vals := row.Values()
	rec := make([]string, 0, len(vals)+1)
	rec = append(rec, row.University)
	for _, v := range vals {
		rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return rec
}

// ReadTable parses a file written by Writer. University IDs are derived from
// the names again.
func ReadTable(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return domain.Table{}, errors.New("missing header row")
	}

	labels, err := parseHeader(records[0])
	if err != nil {
		return domain.Table{}, err
	}

	table := domain.Table{Trimesters: labels, Rows: make([]domain.FinalRow, 0, len(records)-1)}
	for i, rec := range records[1:] {
		row, err := parseRow(rec, len(labels))
		if err != nil {
			return domain.Table{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func parseHeader(header []string) ([]string, error) {
	n := len(header)
	if n < 3 || header[0] != "University" || header[n-2] != "Total SY Snow" || header[n-1] != "Total SY Rain" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	labels := make([]string, 0, n-3)
	for _, col := range header[1 : n-2] {
		label, ok := strings.CutSuffix(col, avgTempSuffix)
		if !ok {
			return nil, fmt.Errorf("unexpected column %q", col)
		}
		labels = append(labels, label)
	}
	return labels, nil
}

func parseRow(rec []string, trimesters int) (domain.FinalRow, error) {
	nums := make([]float64, len(rec)-1)
	for i, s := range rec[1:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.FinalRow{}, fmt.Errorf("column %d: %w", i+2, err)
		}
		nums[i] = v
	}
	return domain.FinalRow{
		UniversityID: domain.NewEntryID(rec[0]),
		University:   rec[0],
		AvgTemps:     nums[:trimesters],
		TotalSnow:    nums[trimesters],
		TotalRain:    nums[trimesters+1],
	}, nil
}
