package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
)

func sampleTable() domain.Table {
	row := func(name string, temps []float64, snow, rain float64) domain.FinalRow {
		return domain.FinalRow{UniversityID: domain.NewEntryID(name), University: name, AvgTemps: temps, TotalSnow: snow, TotalRain: rain}
	}
	return domain.Table{
		Trimesters: []string{"T1", "T2", "T3"},
		Rows: []domain.FinalRow{
			row("Princeton University", []float64{52.1, 33.4, 61.7}, 24.9, 47.5),
			row("Yale University", []float64{51.3, 31.9, 59.8}, 28.6, 49.1),
		},
	}
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "university_climate.db")
	s, err := Open(path, "universitydata")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	want := sampleTable()

	require.NoError(t, s.Export(ctx, want))
	got, err := s.ReadTable(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ExportReplacesTable(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Export(ctx, sampleTable()))

	smaller := sampleTable()
	smaller.Rows = smaller.Rows[1:]
	require.NoError(t, s.Export(ctx, smaller))

	got, err := s.ReadTable(ctx)
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Yale University", got.Rows[0].University)
}

func TestStore_ColumnTypes(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.Export(context.Background(), sampleTable()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT name, type FROM pragma_table_info('universitydata') ORDER BY cid`)
	require.NoError(t, err)
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		var name, typ string
		require.NoError(t, rows.Scan(&name, &typ))
		got = append(got, [2]string{name, typ})
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, [][2]string{
		{"University", "TEXT"},
		{"T1 Avg Temp", "REAL"},
		{"T2 Avg Temp", "REAL"},
		{"T3 Avg Temp", "REAL"},
		{"Total SY Snow", "REAL"},
		{"Total SY Rain", "REAL"},
	}, got)
}

func TestStore_EmptyTable(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	empty := domain.Table{Trimesters: []string{"T1", "T2", "T3"}}

	require.NoError(t, s.Export(ctx, empty))
	got, err := s.ReadTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2", "T3"}, got.Trimesters)
	assert.Empty(t, got.Rows)
}

func TestOpen_EmptyTableName(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.db"), "")
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"T1 Avg Temp"`, quoteIdent("T1 Avg Temp"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
