package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/corpus"
)

func TestSummary(t *testing.T) {
	report := corpus.FileReport{
		Name:   "a.xlsx",
		Sheet:  "data",
		Rows:   12,
		Events: chartreview.FoldStats{Examples: 5, Merged: 4, Discarded: 3},
		Times:  chartreview.FoldStats{Examples: 4, Merged: 2, Discarded: 3, Deferred: 3},
	}

	m := summary(report)
	assert.Equal(t, 12, m["rows"])
	assert.Equal(t, 5, m["event_examples"])
	assert.Equal(t, 3, m["durations_paired"])
	assert.Equal(t, false, m["unpaired_duration"])
	assert.NotContains(t, m, "unpaired_line")

	report.Unpaired = &chartreview.AnnotatedRow{Line: 40}
	m = summary(report)
	assert.Equal(t, 2, m["durations_paired"])
	assert.Equal(t, true, m["unpaired_duration"])
	assert.Equal(t, 40, m["unpaired_line"])
}
