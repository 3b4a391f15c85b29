package chartreview

// sentenceState is the merge state shared by both mergers: either no row has
// reached the merge step yet, or the sentence of the last row that did.
type sentenceState struct {
	seen     bool
	sentence string
}

// continues reports whether sentence belongs to the current sentence group.
// An absent sentence never continues a group.
func (s sentenceState) continues(sentence string) bool {
	return s.seen && sentence != "" && sentence == s.sentence
}

func (s *sentenceState) advance(sentence string) {
	s.seen = true
	s.sentence = sentence
}

// exampleBuffer is the append-only output of a fold. Only the target of the
// last example may change after it was appended.
type exampleBuffer struct {
	examples []TrainingExample
}

func (b *exampleBuffer) append(ex TrainingExample) {
	b.examples = append(b.examples, ex)
}

func (b *exampleBuffer) lastTarget() string {
	return b.examples[len(b.examples)-1].TargetText
}

func (b *exampleBuffer) replaceLast(target string) {
	b.examples[len(b.examples)-1].TargetText = target
}

func (b *exampleBuffer) extendLast(separator, target string) {
	last := &b.examples[len(b.examples)-1]
	last.TargetText = last.TargetText + separator + target
}

// labeler computes the target of a row. A skipped row is invisible to the
// merge step and does not move the sentence state.
type labeler interface {
	label(row AnnotatedRow) (target string, skip bool, err error)
}

// groupTask parameterizes the sentence-group fold for one annotation task.
type groupTask struct {
	prefix    string
	separator string
	input     func(AnnotatedRow) string
}

// foldGroups collapses each run of rows sharing a sentence into one example
// whose target accumulates every finding of the run.
func foldGroups(rows []AnnotatedRow, task groupTask, l labeler) ([]TrainingExample, FoldStats, error) {
	var (
		state sentenceState
		out   exampleBuffer
		stats FoldStats
	)

	for _, row := range rows {
		stats.Rows++

		target, skip, err := l.label(row)
		if err != nil {
			return nil, stats, err
		}
		if skip {
			stats.Deferred++
			continue
		}

		if state.continues(row.Sentence) {
			switch {
			case target == NoFinding:
				stats.Discarded++
			case out.lastTarget() == NoFinding:
				out.replaceLast(target)
				stats.Merged++
			default:
				out.extendLast(task.separator, target)
				stats.Merged++
			}
		} else {
			out.append(TrainingExample{
				AdmissionID: row.AdmissionID,
				PatientID:   row.PatientID,
				Prefix:      task.prefix,
				InputText:   task.input(row),
				TargetText:  target,
			})
		}

		state.advance(row.Sentence)
	}

	stats.Examples = len(out.examples)
	return out.examples, stats, nil
}
