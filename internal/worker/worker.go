// Package worker serves the ingestion webhook that turns uploaded
// chart-review workbooks into stored training examples.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/corpus"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/database"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/metrics"
)

// Recorder persists documents, examples and task bookkeeping.
// *database.Store implements it.
type Recorder interface {
	Ping(ctx context.Context) error
	CreateDocument(ctx context.Context, doc database.Document) (int64, error)
	StoreExamples(ctx context.Context, documentID int64, runID string, examples []chartreview.TrainingExample) error
	StoreProcessingSummary(ctx context.Context, documentID int64, report corpus.FileReport) error
	UpdateTaskStatus(ctx context.Context, taskID int64, status, errorMsg string)
	StoreWebhookEvent(ctx context.Context, action string, payload []byte, taskID int64) error
}

// Fetcher downloads the workbook a task points at.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Settings are the webhook knobs taken from the environment.
type Settings struct {
	WebhookSecret string
	TaskTimeout   time.Duration
}

// Worker handles workbook ingestion
type Worker struct {
	settings Settings
	recorder Recorder
	fetcher  Fetcher
	builder  *corpus.Builder
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	tasks sync.WaitGroup
}

// New returns a Worker. gatherer serves /metrics and is usually the registry
// m was registered on.
func New(settings Settings, recorder Recorder, fetcher Fetcher, builder *corpus.Builder, m *metrics.Metrics, gatherer prometheus.Gatherer) *Worker {
	if settings.TaskTimeout <= 0 {
		settings.TaskTimeout = 5 * time.Minute
	}
	return &Worker{
		settings: settings,
		recorder: recorder,
		fetcher:  fetcher,
		builder:  builder,
		metrics:  m,
		gatherer: gatherer,
	}
}

// Handler routes the webhook, health and metrics endpoints.
func (w *Worker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", w.handleWebhook)
	mux.HandleFunc("/health", w.handleHealth)
	if w.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(w.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Wait blocks until every accepted task has finished.
func (w *Worker) Wait() {
	w.tasks.Wait()
}

func (w *Worker) handleHealth(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := w.recorder.Ping(ctx); err != nil {
		http.Error(rw, fmt.Sprintf(`{"status":"unhealthy","error":%q}`, err.Error()), http.StatusServiceUnavailable)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	fmt.Fprintf(rw, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}
