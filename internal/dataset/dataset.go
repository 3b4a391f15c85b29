// Package dataset persists training corpora as tabular files and splits them
// for cross-validation.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
)

// Columns is the header of every corpus file.
var Columns = []string{"aid", "pid", "prefix", "input_text", "target_text"}

const sheetName = "Sheet1"

var (
	ErrUnsupportedFormat = errors.New("unsupported corpus format")
	ErrBadHeader         = errors.New("corpus header mismatch")
)

// Encode serializes examples in the format implied by the file extension.
func Encode(filename string, examples []chartreview.TrainingExample) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return encodeXLSX(examples)
	case ".csv":
		return encodeCSV(examples)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// Decode parses a corpus file written by Encode (or by the annotation team's
// older tooling, which used the same columns).
func Decode(filename string, content []byte) ([]chartreview.TrainingExample, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = decodeXLSX(content)
	case ".csv":
		rows, err = csv.NewReader(bytes.NewReader(content)).ReadAll()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", filename, err)
	}
	return fromRows(rows)
}

func record(ex chartreview.TrainingExample) []string {
	return []string{ex.AdmissionID, ex.PatientID, ex.Prefix, ex.InputText, ex.TargetText}
}

func encodeCSV(examples []chartreview.TrainingExample) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for _, ex := range examples {
		if err := w.Write(record(ex)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeXLSX(examples []chartreview.TrainingExample) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream writer: %w", err)
	}

	writeRow := func(n int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return sw.SetRow(cell, row)
	}

	if err := writeRow(1, Columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, ex := range examples {
		if err := writeRow(i+2, record(ex)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in workbook")
	}
	return f.GetRows(sheets[0])
}

func fromRows(rows [][]string) ([]chartreview.TrainingExample, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrBadHeader)
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrBadHeader, col)
		}
	}

	examples := make([]chartreview.TrainingExample, 0, len(rows)-1)
	for _, r := range rows[1:] {
		get := func(col string) string {
			if i := index[col]; i < len(r) {
				return r[i]
			}
			return ""
		}
		examples = append(examples, chartreview.TrainingExample{
			AdmissionID: get("aid"),
			PatientID:   get("pid"),
			Prefix:      get("prefix"),
			InputText:   get("input_text"),
			TargetText:  get("target_text"),
		})
	}
	return examples, nil
}
