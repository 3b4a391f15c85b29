// Package rowsource reads chart-review workbooks into ordered annotation rows.
package rowsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrSheetSelection  = errors.New("cannot select data sheet")
	ErrMissingColumns  = errors.New("missing required columns")
	ErrEmptySheet      = errors.New("empty sheet")
	ErrBadDate         = errors.New("unparseable admission date")
)

// File is the ordered row sequence of one workbook.
type File struct {
	Name  string
	Sheet string
	Rows  []chartreview.AnnotatedRow
	// BlankLines counts fully empty worksheet lines that were skipped.
	BlankLines int
}

// Reader parses workbooks according to its Config.
type Reader struct {
	cfg          Config
	exclude      map[string]bool
	placeholders map[string]bool
}

// NewReader returns a Reader for cfg.
func NewReader(cfg Config) *Reader {
	r := &Reader{
		cfg:          cfg,
		exclude:      make(map[string]bool, len(cfg.ExcludeSheets)),
		placeholders: make(map[string]bool, len(cfg.Placeholders)),
	}
	for _, s := range cfg.ExcludeSheets {
		r.exclude[s] = true
	}
	for _, p := range cfg.Placeholders {
		r.placeholders[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return r
}

// Supported reports whether the reader can parse a file with this name.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".csv", ".tsv":
		return true
	}
	return false
}

// Parse reads a workbook (or a CSV/TSV export of its data sheet).
func (r *Reader) Parse(filename string, content []byte) (*File, error) {
	var (
		sheet string
		rows  [][]string
		err   error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = parseCSV(content, ',')
	case ".tsv":
		rows, err = parseCSV(content, '\t')
	case ".xlsx", ".xlsm":
		sheet, rows, err = r.parseExcel(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	file, err := r.annotate(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	file.Name = filename
	file.Sheet = sheet
	return file, nil
}

// SelectSheet drops the excluded sheets and requires exactly one to remain.
func (r *Reader) SelectSheet(sheets []string) (string, error) {
	var kept []string
	for _, s := range sheets {
		if !r.exclude[s] {
			kept = append(kept, s)
		}
	}
	if len(kept) != 1 {
		return "", fmt.Errorf("%w: %d candidate sheets %v", ErrSheetSelection, len(kept), kept)
	}
	return kept[0], nil
}

func (r *Reader) parseExcel(content []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet, err := r.SelectSheet(f.GetSheetList())
	if err != nil {
		return "", nil, err
	}

	// Raw values keep admission dates as serial numbers instead of the
	// locale-dependent display format.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return sheet, rows, nil
}

func parseCSV(content []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

// annotate maps the header row onto the configured columns and converts
// every following line into an AnnotatedRow, keeping worksheet order.
func (r *Reader) annotate(rows [][]string) (*File, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := normalizeHeader(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range r.cfg.Columns.Required() {
		if _, ok := index[normalizeHeader(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	c := r.cfg.Columns
	file := &File{Rows: make([]chartreview.AnnotatedRow, 0, len(rows)-1)}

	for i, cells := range rows[1:] {
		line := i + 2
		if r.blank(cells) {
			file.BlankLines++
			continue
		}

		get := func(col string) string {
			j := index[normalizeHeader(col)]
			if j >= len(cells) {
				return ""
			}
			return r.value(cells[j])
		}
		has := func(col string) bool { return get(col) != "" }

		admitted, err := r.parseDate(get(c.AdmissionDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		sentence := ""
		if j := index[normalizeHeader(c.Sentence)]; j < len(cells) && r.value(cells[j]) != "" {
			// Sentences are compared verbatim, so only normalize the encoding.
			sentence = norm.NFC.String(cells[j])
		}

		file.Rows = append(file.Rows, chartreview.AnnotatedRow{
			Line:            line,
			AdmissionID:     get(c.AdmissionID),
			PatientID:       get(c.PatientID),
			AdmissionDate:   admitted,
			Sentence:        sentence,
			DurationPresent: has(c.Duration),
			TimePoint:       get(c.TimePoint),
			VagueMarker:     get(c.Vague),
			AgeMarker:       get(c.Age),
			AgoMarker:       get(c.Ago),
			TimeInfoPresent: has(c.TimeInfo),
			Events: chartreview.EventFlags{
				Remission: has(c.Remission) || has(c.Response),
				Acute:     has(c.Acute),
				DayCare:   has(c.DayCare),
				Episode:   has(c.Episode),
			},
		})
	}

	return file, nil
}

// value trims and NFC-normalizes a cell, mapping placeholders to "".
func (r *Reader) value(cell string) string {
	v := norm.NFC.String(strings.TrimSpace(cell))
	if r.placeholders[strings.ToLower(v)] {
		return ""
	}
	return v
}

func (r *Reader) blank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (r *Reader) parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, v)
		}
		return t, nil
	}
	for _, layout := range r.cfg.DateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, v)
}

// normalizeHeader makes header matching insensitive to case and padding.
func normalizeHeader(name string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
}
