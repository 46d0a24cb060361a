// Command validate checks the artifacts of a finished run: the CSV file and
// the SQLite table must both be well formed and must hold the same rows.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv final_project_table.csv \
//	  -sqlite university_climate.db \
//	  -table universitydata
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/campus-climate-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/campus-climate-etl/internal/domain"
)

// Plausible bounds for normals in imperial units.
const (
	minTempF = -80.0
	maxTempF = 130.0
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "final_project_table.csv", "path to the exported CSV file")
	dbPath := flag.String("sqlite", "university_climate.db", "path to the exported SQLite database")
	table := flag.String("table", "universitydata", "SQLite table name")
	flag.Parse()

	os.Exit(run(*csvPath, *dbPath, *table, os.Stdout))
}

func run(csvPath, dbPath, tableName string, out io.Writer) int {
	fmt.Fprintln(out, "=== Campus Climate Output Validation ===")
	fmt.Fprintln(out)

	csvTable, err := csvfile.ReadTable(csvPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load CSV: %v\n", err)
		return 1
	}

	store, err := sqlite.Open(dbPath, tableName)
	if err != nil {
		fmt.Fprintf(out, "FATAL: open SQLite: %v\n", err)
		return 1
	}
	defer store.Close()

	dbTable, err := store.ReadTable(context.Background())
	if err != nil {
		fmt.Fprintf(out, "FATAL: load SQLite table: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateTable("CSV table integrity", csvTable),
		validateTable("SQLite table integrity", dbTable),
		validateConsistency(csvTable, dbTable),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d CSV, %d SQLite\n", len(csvTable.Rows), len(dbTable.Rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// validateTable checks one table on its own: it has rows, names are unique,
// and every value is in a plausible range.
func validateTable(name string, t domain.Table) *phase {
	p := &phase{name: name}

	if len(t.Trimesters) == 0 {
		p.errorf("no trimester columns")
	}
	if len(t.Rows) == 0 {
		p.errorf("no rows")
	}

	seen := make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		if row.University == "" {
			p.errorf("row %d: empty university name", i+1)
		}
		if prev, ok := seen[row.UniversityID]; ok {
			p.errorf("row %d: duplicate of row %d (%s)", i+1, prev, row.University)
		}
		seen[row.UniversityID] = i + 1

		for j, temp := range row.AvgTemps {
			if math.IsNaN(temp) || temp < minTempF || temp > maxTempF {
				p.errorf("row %d (%s): %s Avg Temp %.1f out of range", i+1, row.University, t.Trimesters[j], temp)
			}
		}
		if row.TotalSnow < 0 || math.IsNaN(row.TotalSnow) {
			p.errorf("row %d (%s): negative snow total %.1f", i+1, row.University, row.TotalSnow)
		}
		if row.TotalRain < 0 || math.IsNaN(row.TotalRain) {
			p.errorf("row %d (%s): negative rain total %.1f", i+1, row.University, row.TotalRain)
		}
	}
	return p
}

// validateConsistency checks that both sinks hold the same table.
func validateConsistency(csvTable, dbTable domain.Table) *phase {
	p := &phase{name: "CSV/SQLite consistency"}

	if fmt.Sprint(csvTable.Trimesters) != fmt.Sprint(dbTable.Trimesters) {
		p.errorf("trimesters differ: csv=%v sqlite=%v", csvTable.Trimesters, dbTable.Trimesters)
		return p
	}
	if len(csvTable.Rows) != len(dbTable.Rows) {
		p.errorf("row count mismatch: csv=%d sqlite=%d", len(csvTable.Rows), len(dbTable.Rows))
		return p
	}

	for i := range csvTable.Rows {
		a, b := csvTable.Rows[i], dbTable.Rows[i]
		if a.University != b.University {
			p.errorf("row %d: university csv=%q sqlite=%q", i+1, a.University, b.University)
			continue
		}
		av, bv := a.Values(), b.Values()
		cols := csvTable.NumericColumns()
		for j := range av {
			if !floatEq(av[j], bv[j]) {
				p.errorf("row %d (%s): %s csv=%v sqlite=%v", i+1, a.University, cols[j], av[j], bv[j])
			}
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
