package chartreview

import (
	"fmt"
	"strings"
)

const timeOptions = "options: time, vague, age, ago."

// MissingEndpoint stands in for a duration endpoint whose time point is
// empty, matching how older corpora rendered it.
const MissingEndpoint = "nan"

// durationState pairs the two rows of a duration: idle, or awaiting the end
// of the range that start opened.
type durationState struct {
	awaiting bool
	start    AnnotatedRow
}

type timeLabeler struct {
	suppressVague string
	pending       durationState
}

func (l *timeLabeler) label(row AnnotatedRow) (string, bool, error) {
	if !row.TimeInfoPresent {
		return NoFinding, false, nil
	}

	if row.DurationPresent {
		if !l.pending.awaiting {
			l.pending = durationState{awaiting: true, start: row}
			return "", true, nil
		}
		start := l.pending.start
		l.pending = durationState{}
		return fmt.Sprintf("duration: %s to %s", endpoint(start), endpoint(row)), false, nil
	}

	if row.TimePoint == "" && row.VagueMarker == "" && row.AgeMarker == "" && row.AgoMarker == "" {
		return "", false, malformed(row, "time info flagged but no time, vague, age or ago fragment")
	}

	fragments := make([]string, 0, 4)
	if row.TimePoint != "" {
		fragments = append(fragments, "time: "+row.TimePoint+".")
	}
	if row.VagueMarker != "" && (l.suppressVague == "" || row.VagueMarker != l.suppressVague) {
		fragments = append(fragments, "vague: "+row.VagueMarker+".")
	}
	if row.AgeMarker != "" {
		fragments = append(fragments, "age: "+row.AgeMarker+".")
	}
	if row.AgoMarker != "" {
		fragments = append(fragments, "ago: "+row.AgoMarker+".")
	}
	// Only a suppressed vague marker was present.
	if len(fragments) == 0 {
		return NoFinding, false, nil
	}
	return strings.Join(fragments, " "), false, nil
}

func endpoint(row AnnotatedRow) string {
	if row.TimePoint == "" {
		return MissingEndpoint
	}
	return row.TimePoint
}

func timeTask(dateLayout string) groupTask {
	return groupTask{
		prefix:    PrefixTimeExtraction,
		separator: " ",
		input: func(row AnnotatedRow) string {
			date := ""
			if !row.AdmissionDate.IsZero() {
				date = row.AdmissionDate.Format(dateLayout)
			}
			return fmt.Sprintf("%s admission date: %s. %s", row.Sentence, date, timeOptions)
		},
	}
}
