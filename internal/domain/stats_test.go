package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	table := Table{Trimesters: []string{"T1"}}
	for i := 1; i <= 4; i++ {
		v := float64(i)
		table.Rows = append(table.Rows, FinalRow{AvgTemps: []float64{v}, TotalSnow: v * 10, TotalRain: 5})
	}

	stats := Describe(table)
	require.Len(t, stats, 3)

	temp := stats[0]
	assert.Equal(t, "T1 Avg Temp", temp.Column)
	assert.Equal(t, 4, temp.Count)
	assert.InDelta(t, 2.5, temp.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(5.0/3.0), temp.Std, 1e-9)
	assert.InDelta(t, 1, temp.Min, 1e-9)
	assert.InDelta(t, 1.75, temp.Q25, 1e-9)
	assert.InDelta(t, 2.5, temp.Q50, 1e-9)
	assert.InDelta(t, 3.25, temp.Q75, 1e-9)
	assert.InDelta(t, 4, temp.Max, 1e-9)

	assert.Equal(t, "Total SY Snow", stats[1].Column)
	assert.InDelta(t, 25, stats[1].Mean, 1e-9)

	rain := stats[2]
	assert.Equal(t, "Total SY Rain", rain.Column)
	assert.InDelta(t, 0, rain.Std, 1e-9)
}

func TestDescribe_SingleAndEmpty(t *testing.T) {
	single := Describe(Table{Trimesters: []string{"T1"}, Rows: []FinalRow{{AvgTemps: []float64{7}}}})
	assert.Equal(t, 1, single[0].Count)
	assert.InDelta(t, 7, single[0].Q75, 1e-9)
	assert.True(t, math.IsNaN(single[0].Std))

	empty := Describe(Table{Trimesters: []string{"T1"}})
	require.Len(t, empty, 3)
	assert.Equal(t, 0, empty[0].Count)
	assert.True(t, math.IsNaN(empty[0].Mean))
}
