// Package report renders the final climate table and its descriptive
// statistics as plain text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
)

// Banner is printed above the table.
const Banner = "School Year Historical Climate Data by Trimester"

// Write prints the banner, the table with one row per university, and the
// describe block.
func Write(w io.Writer, table domain.Table) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n", Banner, strings.Repeat("-", len(Banner))); err != nil {
		return err
	}
	if err := writeTable(w, table); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return writeStats(w, domain.Describe(table))
}

func writeTable(w io.Writer, table domain.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\t"+strings.Join(table.Columns(), "\t")+"\t")
	for i, row := range table.Rows {
		cells := make([]string, 0, len(row.AvgTemps)+4)
		cells = append(cells, strconv.Itoa(i), row.University)
		for _, v := range row.Values() {
			cells = append(cells, strconv.FormatFloat(v, 'f', 1, 64))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

func writeStats(w io.Writer, stats []domain.ColumnStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := make([]string, 0, len(stats)+1)
	header = append(header, "")
	for _, s := range stats {
		header = append(header, s.Column)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	lines := []struct {
		name string
		get  func(domain.ColumnStats) float64
	}{
		{"mean", func(s domain.ColumnStats) float64 { return s.Mean }},
		{"std", func(s domain.ColumnStats) float64 { return s.Std }},
		{"min", func(s domain.ColumnStats) float64 { return s.Min }},
		{"25%", func(s domain.ColumnStats) float64 { return s.Q25 }},
		{"50%", func(s domain.ColumnStats) float64 { return s.Q50 }},
		{"75%", func(s domain.ColumnStats) float64 { return s.Q75 }},
		{"max", func(s domain.ColumnStats) float64 { return s.Max }},
	}

	counts := []string{"count"}
	for _, s := range stats {
		counts = append(counts, strconv.FormatFloat(float64(s.Count), 'f', 6, 64))
	}
	fmt.Fprintln(tw, strings.Join(counts, "\t")+"\t")

	for _, l := range lines {
		cells := []string{l.name}
		for _, s := range stats {
			cells = append(cells, strconv.FormatFloat(l.get(s), 'f', 6, 64))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}
