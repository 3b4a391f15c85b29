package rowsource

// Columns names the worksheet columns a chart-review sheet must carry.
type Columns struct {
	AdmissionID   string
	PatientID     string
	AdmissionDate string
	Sentence      string
	Duration      string
	TimePoint     string
	Vague         string
	Age           string
	Ago           string
	TimeInfo      string
	Remission     string
	Response      string
	Acute         string
	DayCare       string
	Episode       string
}

// Required lists every column in worksheet order. The per-event time
// columns (緩解時間, 急性住院時間, 慢性住院時間, Episode時間) are deliberately
// not required: no target reads them, so workbooks without them still parse.
func (c Columns) Required() []string {
	return []string{
		c.AdmissionID, c.PatientID, c.AdmissionDate, c.Sentence,
		c.Duration, c.TimePoint, c.Vague, c.Age, c.Ago, c.TimeInfo,
		c.Remission, c.Response, c.Acute, c.DayCare, c.Episode,
	}
}

// Config is fixed at construction; readers never consult package state.
type Config struct {
	// ExcludeSheets are workbook sheets that hold notes rather than rows.
	// Exactly one sheet must remain after exclusion.
	ExcludeSheets []string
	Columns       Columns
	// Placeholders are cell values (case-insensitive, trimmed) that mean
	// the cell is empty.
	Placeholders []string
	// DateLayouts are tried in order for text admission dates. Numeric
	// cells are read as Excel serial dates.
	DateLayouts []string
}

// DefaultConfig matches the layout of the annotation team's workbooks.
func DefaultConfig() Config {
	return Config{
		ExcludeSheets: []string{"500篇ID說明", "500篇ID處理說明", "工作表1"},
		Columns: Columns{
			AdmissionID:   "AID",
			PatientID:     "PID",
			AdmissionDate: "Admissindate",
			Sentence:      "Sentence",
			Duration:      "Duration",
			TimePoint:     "Time_YMD",
			Vague:         "Vague",
			Age:           "Age",
			Ago:           "Ago_YMD",
			TimeInfo:      "TimeInfo",
			Remission:     "Remission",
			Response:      "Response",
			Acute:         "Acute",
			DayCare:       "DayCare",
			Episode:       "Episode",
		},
		// pandas' default NA markers; matching is case-insensitive.
		Placeholders: []string{
			"", "#n/a", "#n/a n/a", "#na", "-1.#ind", "-1.#qnan", "-nan",
			"1.#ind", "1.#qnan", "<na>", "n/a", "na", "nan", "null", "none",
		},
		DateLayouts: []string{
			"2006-01-02",
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006/01/02",
			"2006/1/2",
			"01/02/2006",
		},
	}
}
