// Package chartreview turns ordered chart-review annotation rows into
// sequence-to-sequence training examples for the event detection and time
// extraction tasks.
package chartreview

import "time"

// Task prefixes tag which annotation task an example was built for.
const (
	PrefixEventDetection = "event detection"
	PrefixTimeExtraction = "time extraction"
)

// NoFinding is the target text of a sentence that carries no annotation.
const NoFinding = "None"

// EventFlags records which clinical event columns were filled in on a row.
type EventFlags struct {
	Remission bool // Remission or Response
	Acute     bool
	DayCare   bool
	Episode   bool
}

// AnnotatedRow is a single worksheet row. Empty fragment fields mean the cell
// was absent; the row source never passes placeholder text such as "null".
type AnnotatedRow struct {
	Line          int // 1-based worksheet line, for diagnostics only
	AdmissionID   string
	PatientID     string
	AdmissionDate time.Time
	Sentence      string

	DurationPresent bool
	TimePoint       string
	VagueMarker     string
	AgeMarker       string
	AgoMarker       string
	TimeInfoPresent bool

	Events EventFlags
}

// TrainingExample is one (input, target) pair of the corpus.
type TrainingExample struct {
	AdmissionID string
	PatientID   string
	Prefix      string
	InputText   string
	TargetText  string
}

// ModelInput renders the example the way the text-to-text model consumes it.
func (e TrainingExample) ModelInput() string {
	return e.Prefix + ": " + e.InputText
}

// FoldStats counts what a merger did with its rows.
type FoldStats struct {
	Rows      int // rows consumed
	Examples  int // examples emitted
	Merged    int // rows folded into the previous example's target
	Discarded int // same-sentence rows without a finding
	Deferred  int // duration starts held back until their end arrived
}

// Result is the output of one merger over one source file.
type Result struct {
	Examples []TrainingExample
	Stats    FoldStats
	// Unpaired is the duration start still pending when the rows ran out.
	// It never produced an example.
	Unpaired *AnnotatedRow
}
