package chartreview

import (
	"fmt"
)

// Merger runs the event and time folds. It holds no per-file state, so one
// Merger can fold many files concurrently.
type Merger struct {
	opts Options
}

// NewMerger validates opts and returns a Merger.
func NewMerger(opts Options) (*Merger, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid merge options: %w", err)
	}
	return &Merger{opts: opts}, nil
}

// Options returns the options the merger was built with.
func (m *Merger) Options() Options {
	return m.opts
}

// MergeEvents folds rows into event detection examples.
func (m *Merger) MergeEvents(rows []AnnotatedRow) Result {
	// The event labeler never fails.
	examples, stats, _ := foldGroups(rows, eventTask(), eventLabeler{})
	return Result{Examples: examples, Stats: stats}
}

// MergeTimes folds rows into time extraction examples. A malformed row fails
// the whole fold with a *MalformedRowError and no examples.
func (m *Merger) MergeTimes(rows []AnnotatedRow) (Result, error) {
	l := &timeLabeler{suppressVague: m.opts.SuppressVagueWhen}
	examples, stats, err := foldGroups(rows, timeTask(m.opts.AdmissionDateLayout), l)
	if err != nil {
		return Result{Stats: stats}, err
	}

	res := Result{Examples: examples, Stats: stats}
	if l.pending.awaiting {
		start := l.pending.start
		if m.opts.UnpairedDurations == UnpairedError {
			return Result{Stats: stats}, fmt.Errorf("%w: line %d aid=%s time=%s",
				ErrUnpairedDuration, start.Line, start.AdmissionID, start.TimePoint)
		}
		res.Unpaired = &start
	}
	return res, nil
}

// MergeFile runs both mergers over one file's rows and returns the event
// examples followed by the time examples.
func (m *Merger) MergeFile(rows []AnnotatedRow) (events, times Result, err error) {
	events = m.MergeEvents(rows)
	times, err = m.MergeTimes(rows)
	if err != nil {
		return Result{}, Result{}, err
	}
	return events, times, nil
}
