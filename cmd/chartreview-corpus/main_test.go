package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/dataset"
)

func writeWorkbook(t *testing.T, path string, rows ...[]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{
		"AID", "PID", "Admissindate", "Sentence",
		"Duration", "Time_YMD", "Vague", "Age", "Ago_YMD", "TimeInfo",
		"Remission", "Response", "Acute", "DayCare", "Episode",
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestBuildFoldsInputs(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(data, 0o755))

	writeWorkbook(t, filepath.Join(data, "ward1.xlsx"),
		[]interface{}{"A1", "P1", "2020-01-05", "relapse noted", "", "2019-12", "", "", "", "Y", "", "", "Y", "", ""},
	)
	writeWorkbook(t, filepath.Join(data, "ward2.xlsx"),
		[]interface{}{"A2", "P2", "2021-03-01", "routine visit", "", "", "", "", "", "", "", "", "", "", ""},
	)
	require.NoError(t, os.WriteFile(filepath.Join(data, "README.txt"), []byte("notes"), 0o644))

	corpusFile := filepath.Join(dir, "corpus.xlsx")
	execute(t, "build", "--data_dir", data, "--output_file", corpusFile, "--log-level", "error")

	content, err := os.ReadFile(corpusFile)
	require.NoError(t, err)
	examples, err := dataset.Decode("corpus.xlsx", content)
	require.NoError(t, err)
	require.Len(t, examples, 4)
	assert.Equal(t, "A1", examples[0].AdmissionID)
	assert.Equal(t, "Acute", examples[0].TargetText)
	assert.Equal(t, "time: 2019-12.", examples[1].TargetText)
	assert.Equal(t, "A2", examples[2].AdmissionID)
	assert.Equal(t, "None", examples[3].TargetText)

	out := execute(t, "inputs", "--data_file", corpusFile)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "event detection: relapse noted"))
	assert.True(t, strings.HasPrefix(lines[1], "time extraction: relapse noted admission date: 2020-01-05 00:00:00."))

	foldsDir := filepath.Join(dir, "folds")
	execute(t, "folds", "--data_file", corpusFile, "--output_dir", foldsDir, "--folds", "2")
	for _, fold := range []string{"fold0", "fold1"} {
		for _, split := range []string{"train.xlsx", "eval.xlsx", "test.xlsx"} {
			assert.FileExists(t, filepath.Join(foldsDir, fold, split))
		}
	}
}
