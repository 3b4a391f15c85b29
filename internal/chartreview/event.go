package chartreview

import "strings"

const eventOptions = "options: Remission, Acute, DayCare, Episode."

// eventLabels lists the event labels in the order they appear in targets.
var eventLabels = []struct {
	name    string
	present func(EventFlags) bool
}{
	{"Remission", func(f EventFlags) bool { return f.Remission }},
	{"Acute", func(f EventFlags) bool { return f.Acute }},
	{"DayCare", func(f EventFlags) bool { return f.DayCare }},
	{"Episode", func(f EventFlags) bool { return f.Episode }},
}

// EventTarget renders the event detection target of a single row.
func EventTarget(flags EventFlags) string {
	labels := make([]string, 0, len(eventLabels))
	for _, l := range eventLabels {
		if l.present(flags) {
			labels = append(labels, l.name)
		}
	}
	if len(labels) == 0 {
		return NoFinding
	}
	return strings.Join(labels, ", ")
}

type eventLabeler struct{}

func (eventLabeler) label(row AnnotatedRow) (string, bool, error) {
	return EventTarget(row.Events), false, nil
}

func eventTask() groupTask {
	return groupTask{
		prefix:    PrefixEventDetection,
		separator: ", ",
		input: func(row AnnotatedRow) string {
			return row.Sentence + " " + eventOptions
		},
	}
}
