package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingSummary is returned when a university has no row in one of the
// trimester tables being merged.
var ErrMissingSummary = errors.New("missing trimester summary")

// TrimesterSummary is the aggregate of one university's normals over one
// trimester.
type TrimesterSummary struct {
	UniversityID string
	City         string
	Trimester    string
	AvgTemp      float64
	TotalRain    float64
	TotalSnow    float64

	// MonthsMatched counts the records that fell inside the trimester. It
	// can be lower than len(Trimester.Months) when the API omits months.
	MonthsMatched int
}

// Complete reports whether every month of the trimester had a record.
func (s TrimesterSummary) Complete(t Trimester) bool {
	return s.MonthsMatched == len(t.Months)
}

// Summarize filters a university's monthly normals down to the trimester's
// months by month number, sums precipitation and snowfall, and averages
// temperature over the trimester's defined month count.
func Summarize(c CityClimate, t Trimester) TrimesterSummary {
	var temp, rain, snow float64
	matched := 0
	for _, m := range c.Normals.Months {
		if !t.Contains(m.Month) {
			continue
		}
		temp += m.AvgTemp
		rain += m.Precip
		snow += m.Snow
		matched++
	}

	var avg float64
	if len(t.Months) > 0 {
		avg = round1(temp / float64(len(t.Months)))
	}

	return TrimesterSummary{
		UniversityID:  c.Entry.ID,
		City:          c.Entry.Place,
		Trimester:     t.Label,
		AvgTemp:       avg,
		TotalRain:     rain,
		TotalSnow:     snow,
		MonthsMatched: matched,
	}
}

// SummarizeAll produces one summary per university for the trimester, in the
// order of climates.
func SummarizeAll(climates []CityClimate, t Trimester) []TrimesterSummary {
	out := make([]TrimesterSummary, len(climates))
	for i, c := range climates {
		out[i] = Summarize(c, t)
	}
	return out
}

// FinalRow is one university in the exported table.
type FinalRow struct {
	UniversityID string    `json:"id"`
	University   string    `json:"university"`
	AvgTemps     []float64 `json:"avg_temps"` // one per trimester, in table order
	TotalSnow    float64   `json:"total_sy_snow"`
	TotalRain    float64   `json:"total_sy_rain"`
}

// Table is the final per-university climate table.
type Table struct {
	Trimesters []string // trimester labels, e.g. T1, T2, T3
	Rows       []FinalRow
}

// Columns returns the header row of the table.
func (t Table) Columns() []string {
	cols := make([]string, 0, len(t.Trimesters)+3)
	cols = append(cols, "University")
	for _, label := range t.Trimesters {
		cols = append(cols, label+" Avg Temp")
	}
	return append(cols, "Total SY Snow", "Total SY Rain")
}

// NumericColumns returns the header names of every column except University.
func (t Table) NumericColumns() []string {
	return t.Columns()[1:]
}

// Values returns the numeric cells of a row in column order.
func (r FinalRow) Values() []float64 {
	vals := make([]float64, 0, len(r.AvgTemps)+2)
	vals = append(vals, r.AvgTemps...)
	return append(vals, r.TotalSnow, r.TotalRain)
}

// MergeTrimesters joins the per-trimester tables into the final table. Rows
// are matched by university ID and emitted in the order of entries. tables[i]
// must hold the summaries for trimesters[i].
func MergeTrimesters(entries []RankedEntry, trimesters []Trimester, tables [][]TrimesterSummary) (Table, error) {
	if len(tables) != len(trimesters) {
		return Table{}, fmt.Errorf("merge: %d trimester tables for %d trimesters", len(tables), len(trimesters))
	}

	byID := make([]map[string]TrimesterSummary, len(tables))
	for i, table := range tables {
		byID[i] = make(map[string]TrimesterSummary, len(table))
		for _, s := range table {
			byID[i][s.UniversityID] = s
		}
	}

	out := Table{
		Trimesters: make([]string, len(trimesters)),
		Rows:       make([]FinalRow, 0, len(entries)),
	}
	for i, t := range trimesters {
		out.Trimesters[i] = t.Label
	}

	for _, e := range entries {
		row := FinalRow{
			UniversityID: e.ID,
			University:   e.Name,
			AvgTemps:     make([]float64, len(trimesters)),
		}
		var rain, snow float64
		for i, t := range trimesters {
			s, ok := byID[i][e.ID]
			if !ok {
				return Table{}, fmt.Errorf("%w: %s has no %s row", ErrMissingSummary, e.Name, t.Label)
			}
			row.AvgTemps[i] = s.AvgTemp
			rain += s.TotalRain
			snow += s.TotalSnow
		}
		row.TotalRain = round1(rain)
		row.TotalSnow = round1(snow)
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
