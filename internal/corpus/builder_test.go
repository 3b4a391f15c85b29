package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/metrics"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/rowsource"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/storage"
)

var header = []interface{}{
	"AID", "PID", "Admissindate", "Sentence",
	"Duration", "Time_YMD", "Vague", "Age", "Ago_YMD", "TimeInfo",
	"Remission", "Response", "Acute", "DayCare", "Episode",
}

// line builds a data row; flags lists the filled event columns.
func line(aid, sentence, duration, timePoint, timeInfo string, flags ...string) []interface{} {
	r := []interface{}{aid, "P-" + aid, "2020-01-05", sentence, duration, timePoint, "", "", "", timeInfo, "", "", "", "", ""}
	for _, f := range flags {
		for i, h := range header {
			if h == f {
				r[i] = "Y"
			}
		}
	}
	return r
}

func writeWorkbook(t *testing.T, path string, rows ...[]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("工作表1")
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func newBuilder(t *testing.T, m *metrics.Metrics) *Builder {
	t.Helper()
	merger, err := chartreview.NewMerger(chartreview.DefaultOptions())
	require.NoError(t, err)
	return NewBuilder(rowsource.NewReader(rowsource.DefaultConfig()), merger, m, 4)
}

func TestBuild_ConcatenatesInFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "b.xlsx"),
		line("B1", "b sentence", "", "", ""),
	)
	writeWorkbook(t, filepath.Join(dir, "a.xlsx"),
		line("A1", "first", "", "", "", "Acute"),
		line("A1", "first", "", "", "", "Episode"),
		line("A1", "second", "1", "2020-01-01", "1"),
		line("A1", "second", "1", "2020-02-01", "1"),
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0o644))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c, err := newBuilder(t, m).Build(context.Background(), storage.NewLocalStore(dir))
	require.NoError(t, err)

	require.Len(t, c.Files, 2)
	assert.Equal(t, "a.xlsx", c.Files[0].Name)
	assert.Equal(t, "b.xlsx", c.Files[1].Name)
	assert.NotEmpty(t, c.RunID)

	type pair struct{ aid, prefix, target string }
	var got []pair
	for _, ex := range c.Examples {
		got = append(got, pair{ex.AdmissionID, ex.Prefix, ex.TargetText})
	}
	assert.Equal(t, []pair{
		{"A1", "event detection", "Acute, Episode"},
		{"A1", "event detection", "None"},
		{"A1", "time extraction", "None"},
		{"A1", "time extraction", "duration: 2020-01-01 to 2020-02-01"},
		{"B1", "event detection", "None"},
		{"B1", "time extraction", "None"},
	}, got)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesProcessed.WithLabelValues("success")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowsRead.WithLabelValues("workbook")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsMerged.WithLabelValues(chartreview.PrefixEventDetection)))
}

func TestBuild_ReportsUnpairedDuration(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "a.xlsx"),
		line("A1", "s1", "", "2019", "1"),
		line("A1", "s2", "1", "2020-01-01", "1"),
	)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c, err := newBuilder(t, m).Build(context.Background(), storage.NewLocalStore(dir))
	require.NoError(t, err)

	require.NotNil(t, c.Files[0].Unpaired)
	assert.Equal(t, 3, c.Files[0].Unpaired.Line)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnpairedDurations))
}

func TestBuild_FailsOnMalformedRow(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "a.xlsx"),
		line("A7", "s1", "", "", "1"),
	)

	m := metrics.New(prometheus.NewRegistry())
	_, err := newBuilder(t, m).Build(context.Background(), storage.NewLocalStore(dir))
	require.ErrorIs(t, err, chartreview.ErrMalformedRow)
	assert.Contains(t, err.Error(), "a.xlsx")
	assert.Contains(t, err.Error(), "A7")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MalformedRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesProcessed.WithLabelValues("merge_error")))
}

func TestBuildFile_IsolatesFiles(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "a.xlsx"),
		line("A1", "same", "1", "2020-01-01", "1"),
	)
	writeWorkbook(t, filepath.Join(dir, "b.xlsx"),
		line("B1", "same", "1", "2021-01-01", "1"),
		line("B1", "same", "1", "2021-03-01", "1"),
	)
	store := storage.NewLocalStore(dir)
	b := newBuilder(t, nil)

	a, err := store.Get(context.Background(), "a.xlsx")
	require.NoError(t, err)
	_, _, err = b.BuildFile("a.xlsx", a)
	require.NoError(t, err)

	content, err := store.Get(context.Background(), "b.xlsx")
	require.NoError(t, err)
	examples, report, err := b.BuildFile("b.xlsx", content)
	require.NoError(t, err)
	assert.Nil(t, report.Unpaired)
	require.Len(t, examples, 2)
	assert.Equal(t, "duration: 2021-01-01 to 2021-03-01", examples[1].TargetText)
}
