package chartreview

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow marks a row whose annotations contradict each other.
	ErrMalformedRow = errors.New("malformed annotation row")
	// ErrUnpairedDuration is returned under UnpairedError when a file ends
	// with a duration start that never got its end.
	ErrUnpairedDuration = errors.New("unpaired duration start")
)

// MalformedRowError identifies the offending row.
type MalformedRowError struct {
	Line        int
	AdmissionID string
	PatientID   string
	Reason      string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%v: line %d aid=%s pid=%s: %s",
		ErrMalformedRow, e.Line, e.AdmissionID, e.PatientID, e.Reason)
}

func (e *MalformedRowError) Unwrap() error {
	return ErrMalformedRow
}

func malformed(row AnnotatedRow, reason string) error {
	return &MalformedRowError{
		Line:        row.Line,
		AdmissionID: row.AdmissionID,
		PatientID:   row.PatientID,
		Reason:      reason,
	}
}
