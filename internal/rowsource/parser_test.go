package rowsource

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []interface{}{
	"AID", "PID", "Admissindate", "Sentence",
	"Duration", "Time_YMD", "Vague", "Age", "Ago_YMD", "TimeInfo",
	"Remission", "Response", "緩解時間", "Acute", "急性住院時間", "DayCare", "慢性住院時間", "Episode", "Episode時間",
}

// workbook builds an xlsx with the data sheet plus the given extra sheets.
func workbook(t *testing.T, dataSheet string, extra []string, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", dataSheet))
	for _, s := range extra {
		_, err := f.NewSheet(s)
		require.NoError(t, err)
	}

	require.NoError(t, f.SetSheetRow(dataSheet, "A1", &header))
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow(dataSheet, cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse_Workbook(t *testing.T) {
	content := workbook(t, "病歷", []string{"500篇ID說明", "工作表1"},
		[]interface{}{"A1", "P1", "2020-01-05", "Discharged in remission.", "", "", "", "", "", "", "", "PR", "", "", "", "", "", "", ""},
		[]interface{}{"A1", "P1", "2020-01-05", "Admitted 2019/3.", "", "2019/3", "nan", "", "", "1", "", "", "", "Y", "", "", "", "", ""},
		[]interface{}{"A1", "P1", "2020-01-05", "Two visits.", "1", "2018/1", "", "", "", "1", "", "", "", "", "", "Y", "", "Y", ""},
	)

	r := NewReader(DefaultConfig())
	file, err := r.Parse("chart.xlsx", content)
	require.NoError(t, err)

	assert.Equal(t, "病歷", file.Sheet)
	require.Len(t, file.Rows, 3)

	first := file.Rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "A1", first.AdmissionID)
	assert.Equal(t, "P1", first.PatientID)
	assert.Equal(t, time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), first.AdmissionDate)
	assert.True(t, first.Events.Remission, "Response maps to Remission")
	assert.False(t, first.TimeInfoPresent)

	second := file.Rows[1]
	assert.Equal(t, "2019/3", second.TimePoint)
	assert.Empty(t, second.VagueMarker, "placeholder is absent")
	assert.True(t, second.TimeInfoPresent)
	assert.True(t, second.Events.Acute)

	third := file.Rows[2]
	assert.True(t, third.DurationPresent)
	assert.True(t, third.Events.DayCare)
	assert.True(t, third.Events.Episode)
	assert.False(t, third.Events.Remission)
}

func TestParse_SerialAdmissionDate(t *testing.T) {
	content := workbook(t, "data", nil,
		[]interface{}{"A1", "P1", 43831, "s1"},
	)
	file, err := NewReader(DefaultConfig()).Parse("chart.xlsx", content)
	require.NoError(t, err)
	require.Len(t, file.Rows, 1)
	assert.Equal(t, "2020-01-01", file.Rows[0].AdmissionDate.Format("2006-01-02"))
}

func TestParse_SkipsBlankLines(t *testing.T) {
	content := workbook(t, "data", nil,
		[]interface{}{"A1", "P1", "2020-01-05", "s1"},
		[]interface{}{"", "", "", ""},
		[]interface{}{"A1", "P1", "2020-01-05", "s2"},
	)
	file, err := NewReader(DefaultConfig()).Parse("chart.xlsx", content)
	require.NoError(t, err)
	require.Len(t, file.Rows, 2)
	assert.Equal(t, 4, file.Rows[1].Line)
	assert.Equal(t, 1, file.BlankLines)
}

func TestSelectSheet(t *testing.T) {
	r := NewReader(DefaultConfig())

	sheet, err := r.SelectSheet([]string{"500篇ID處理說明", "data", "工作表1"})
	require.NoError(t, err)
	assert.Equal(t, "data", sheet)

	_, err = r.SelectSheet([]string{"data", "more"})
	assert.ErrorIs(t, err, ErrSheetSelection)

	_, err = r.SelectSheet([]string{"工作表1"})
	assert.ErrorIs(t, err, ErrSheetSelection)
}

func TestSelectSheet_ConfiguredExclusions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcludeSheets = []string{"notes"}
	sheet, err := NewReader(cfg).SelectSheet([]string{"notes", "工作表1"})
	require.NoError(t, err)
	assert.Equal(t, "工作表1", sheet)
}

func TestParse_MissingColumns(t *testing.T) {
	csv := "AID,PID,Admissindate,Sentence\nA1,P1,2020-01-01,s1\n"
	_, err := NewReader(DefaultConfig()).Parse("chart.csv", []byte(csv))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "TimeInfo")
}

func TestParse_CSV(t *testing.T) {
	head := make([]string, len(header))
	for i, h := range header {
		head[i] = h.(string)
	}
	lines := []string{
		strings.Join(head, ","),
		"A9,P9,2021/2/3,Sentence one.,,,early,,,x,,,,,,,,,",
		`A9,P9,2021/2/3,"Sentence, with comma.",,,,,,,,,,,,,,,`,
	}
	file, err := NewReader(DefaultConfig()).Parse("chart.csv", []byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.Len(t, file.Rows, 2)
	assert.Equal(t, "early", file.Rows[0].VagueMarker)
	assert.True(t, file.Rows[0].TimeInfoPresent)
	assert.Equal(t, time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC), file.Rows[0].AdmissionDate)
	assert.Equal(t, "Sentence, with comma.", file.Rows[1].Sentence)
}

func TestParse_NAMarkersAreAbsent(t *testing.T) {
	head := make([]string, len(header))
	for i, h := range header {
		head[i] = h.(string)
	}
	lines := []string{
		strings.Join(head, ","),
		"A1,P1,2021-02-03,s1,,-nan,NA,#N/A,<NA>,NaN,,,,,,,,,",
		"A1,P1,2021-02-03,s2,,2020,na,,,x,N/A,,,,,,,,",
	}
	file, err := NewReader(DefaultConfig()).Parse("chart.csv", []byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.Len(t, file.Rows, 2)

	first := file.Rows[0]
	assert.Empty(t, first.TimePoint)
	assert.Empty(t, first.VagueMarker)
	assert.Empty(t, first.AgeMarker)
	assert.Empty(t, first.AgoMarker)
	assert.False(t, first.TimeInfoPresent)

	second := file.Rows[1]
	assert.Equal(t, "2020", second.TimePoint)
	assert.Empty(t, second.VagueMarker)
	assert.False(t, second.Events.Remission)
}

func TestParse_HeaderMatchingIgnoresCaseAndPadding(t *testing.T) {
	head := make([]string, len(header))
	for i, h := range header {
		head[i] = " " + strings.ToUpper(h.(string)) + " "
	}
	csv := strings.Join(head, "\t") + "\nA1\tP1\t2020-01-01\ts1\n"
	file, err := NewReader(DefaultConfig()).Parse("chart.tsv", []byte(csv))
	require.NoError(t, err)
	require.Len(t, file.Rows, 1)
	assert.Equal(t, "s1", file.Rows[0].Sentence)
}

func TestParse_BadDate(t *testing.T) {
	content := workbook(t, "data", nil, []interface{}{"A1", "P1", "yesterday", "s1"})
	_, err := NewReader(DefaultConfig()).Parse("chart.xlsx", content)
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestParse_Unsupported(t *testing.T) {
	_, err := NewReader(DefaultConfig()).Parse("chart.pdf", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.False(t, Supported("notes.txt"))
	assert.True(t, Supported("CHART.XLSX"))
}
