package domain

import (
	"math"
	"sort"
)

// ColumnStats holds descriptive statistics of one numeric column.
type ColumnStats struct {
	Column string
	Count  int
	Mean   float64
	Std    float64 // sample standard deviation, NaN below two values
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Describe computes count, mean, std, min, quartiles, and max for every
// numeric column of the table. Quartiles use linear interpolation between
// the closest ranks. Statistics of an empty column are NaN.
func Describe(t Table) []ColumnStats {
	cols := t.NumericColumns()
	values := make([][]float64, len(cols))
	for _, row := range t.Rows {
		for i, v := range row.Values() {
			if i < len(values) {
				values[i] = append(values[i], v)
			}
		}
	}

	out := make([]ColumnStats, len(cols))
	for i, col := range cols {
		out[i] = describeColumn(col, values[i])
	}
	return out
}

func describeColumn(name string, vals []float64) ColumnStats {
	nan := math.NaN()
	s := ColumnStats{Column: name, Count: len(vals), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(vals) == 0 {
		return s
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	s.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - s.Mean
			sq += d * d
		}
		s.Std = math.Sqrt(sq / float64(len(sorted)-1))
	}

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.50)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
