// Package corpus assembles the training corpus from a directory of
// chart-review workbooks.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/metrics"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/rowsource"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/storage"
)

// FileReport summarizes how one workbook was folded.
type FileReport struct {
	Name       string
	Sheet      string
	Rows       int
	BlankLines int
	Events     chartreview.FoldStats
	Times      chartreview.FoldStats
	Unpaired   *chartreview.AnnotatedRow
}

// Corpus is the concatenated output of a build.
type Corpus struct {
	RunID    string
	Examples []chartreview.TrainingExample
	Files    []FileReport
}

// Builder parses and folds workbooks.
type Builder struct {
	reader  *rowsource.Reader
	merger  *chartreview.Merger
	metrics *metrics.Metrics
	workers int
}

// NewBuilder returns a Builder folding up to workers files at once. m may be nil.
func NewBuilder(reader *rowsource.Reader, merger *chartreview.Merger, m *metrics.Metrics, workers int) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{reader: reader, merger: merger, metrics: m, workers: workers}
}

// BuildFile folds one workbook into its event examples followed by its time
// examples.
func (b *Builder) BuildFile(name string, content []byte) ([]chartreview.TrainingExample, FileReport, error) {
	start := time.Now()
	report := FileReport{Name: name}

	file, err := b.reader.Parse(name, content)
	if err != nil {
		b.countFile("parse_error")
		return nil, report, err
	}
	report.Sheet = file.Sheet
	report.Rows = len(file.Rows)
	report.BlankLines = file.BlankLines

	events, times, err := b.merger.MergeFile(file.Rows)
	if err != nil {
		b.countFile("merge_error")
		var malformed *chartreview.MalformedRowError
		if b.metrics != nil && errors.As(err, &malformed) {
			b.metrics.MalformedRows.Inc()
		}
		return nil, report, fmt.Errorf("%s: %w", name, err)
	}
	report.Events = events.Stats
	report.Times = times.Stats
	report.Unpaired = times.Unpaired

	examples := make([]chartreview.TrainingExample, 0, len(events.Examples)+len(times.Examples))
	examples = append(examples, events.Examples...)
	examples = append(examples, times.Examples...)

	b.observe(report, examples, time.Since(start))
	return examples, report, nil
}

// Build folds every supported file of store. Files are processed
// concurrently but the corpus is always ordered by file name, then by
// example order within the file.
func (b *Builder) Build(ctx context.Context, store storage.Store) (*Corpus, error) {
	names, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, name := range names {
		if rowsource.Supported(name) {
			files = append(files, name)
		} else {
			log.Debug().Str("file", name).Msg("skipping non-workbook file")
		}
	}

	type result struct {
		examples []chartreview.TrainingExample
		report   FileReport
	}
	results := make([]result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, name := range files {
		g.Go(func() error {
			content, err := store.Get(gctx, name)
			if err != nil {
				return err
			}
			examples, report, err := b.BuildFile(name, content)
			if err != nil {
				return err
			}
			results[i] = result{examples: examples, report: report}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Corpus{RunID: uuid.NewString()}
	for _, r := range results {
		c.Examples = append(c.Examples, r.examples...)
		c.Files = append(c.Files, r.report)
	}

	log.Info().
		Str("run_id", c.RunID).
		Int("files", len(c.Files)).
		Int("examples", len(c.Examples)).
		Msg("corpus built")
	return c, nil
}

func (b *Builder) observe(report FileReport, examples []chartreview.TrainingExample, elapsed time.Duration) {
	logger := log.With().Str("file", report.Name).Str("sheet", report.Sheet).Logger()
	logger.Info().
		Int("rows", report.Rows).
		Int("event_examples", report.Events.Examples).
		Int("time_examples", report.Times.Examples).
		Dur("elapsed", elapsed).
		Msg("workbook folded")
	if u := report.Unpaired; u != nil {
		logger.Warn().
			Int("line", u.Line).
			Str("aid", u.AdmissionID).
			Str("time", u.TimePoint).
			Msg("file ended with an unpaired duration start; it was dropped")
	}

	if b.metrics == nil {
		return
	}
	b.metrics.FilesProcessed.WithLabelValues("success").Inc()
	b.metrics.RowsRead.WithLabelValues("workbook").Add(float64(report.Rows))
	b.metrics.ProcessingDuration.WithLabelValues("workbook").Observe(elapsed.Seconds())
	for _, ex := range examples {
		target := "finding"
		if ex.TargetText == chartreview.NoFinding {
			target = "none"
		}
		b.metrics.ExamplesEmitted.WithLabelValues(ex.Prefix, target).Inc()
	}
	b.metrics.RowsMerged.WithLabelValues(chartreview.PrefixEventDetection).Add(float64(report.Events.Merged))
	b.metrics.RowsMerged.WithLabelValues(chartreview.PrefixTimeExtraction).Add(float64(report.Times.Merged))
	b.metrics.RowsDiscarded.WithLabelValues(chartreview.PrefixEventDetection).Add(float64(report.Events.Discarded))
	b.metrics.RowsDiscarded.WithLabelValues(chartreview.PrefixTimeExtraction).Add(float64(report.Times.Discarded))
	if report.Unpaired != nil {
		b.metrics.UnpairedDurations.Inc()
	}
}

func (b *Builder) countFile(status string) {
	if b.metrics != nil {
		b.metrics.FilesProcessed.WithLabelValues(status).Inc()
	}
}
