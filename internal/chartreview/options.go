package chartreview

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// UnpairedPolicy decides what happens to a duration start left pending at
// the end of a file.
type UnpairedPolicy string

const (
	// UnpairedDrop discards the pending start and reports it in Result.Unpaired.
	UnpairedDrop UnpairedPolicy = "drop"
	// UnpairedError fails the fold with ErrUnpairedDuration.
	UnpairedError UnpairedPolicy = "error"
)

// DefaultAdmissionDateLayout renders admission dates as a full timestamp,
// which is how the annotation team's corpora have always shown them.
const DefaultAdmissionDateLayout = "2006-01-02 15:04:05"

// Options configures both mergers.
type Options struct {
	// SuppressVagueWhen drops the "vague:" fragment when the vague marker
	// equals this value. Empty disables suppression.
	SuppressVagueWhen string
	// AdmissionDateLayout is the time layout used in time extraction inputs.
	AdmissionDateLayout string
	UnpairedDurations   UnpairedPolicy
}

// DefaultOptions returns options with no vague suppression and silent
// dropping of unpaired duration starts.
func DefaultOptions() Options {
	return Options{
		AdmissionDateLayout: DefaultAdmissionDateLayout,
		UnpairedDurations:   UnpairedDrop,
	}
}

// Validate checks the option values.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.AdmissionDateLayout, validation.Required),
		validation.Field(&o.UnpairedDurations, validation.Required, validation.In(UnpairedDrop, UnpairedError)),
	)
}
