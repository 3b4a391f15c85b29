package worker

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/rowsource"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Oceanid-Signature"

const (
	maxWebhookBody = 10 * 1024 * 1024
	statusTimeout  = 5 * time.Second
)

// IngestionEvent represents an upload webhook emitted by our intake services
type IngestionEvent struct {
	Action  string                 `json:"action"`
	Task    map[string]interface{} `json:"task"`
	Project map[string]interface{} `json:"project"`
}

// TaskData is the workbook reference extracted from a task.
type TaskData struct {
	TaskID     int64
	FileURL    string
	FileName   string
	SourceName string
	Metadata   map[string]interface{}
}

var (
	errNoTask    = errors.New("no task data in payload")
	errNoTaskID  = errors.New("invalid or missing task ID")
	errNoData    = errors.New("no data section in task")
	errNoFileURL = errors.New("no file URL found in task data")
)

// fileFields are the task data keys that may hold the workbook URL, in
// priority order.
var fileFields = []string{"xlsx", "workbook", "file", "file_url", "file_upload", "document_url", "csv", "csv_url"}

func (w *Worker) handleWebhook(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Error().Err(err).Msg("failed to read webhook body")
		w.countWebhook("unknown", "error")
		http.Error(rw, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if w.settings.WebhookSecret != "" && !VerifySignature(w.settings.WebhookSecret, body, r.Header.Get(SignatureHeader)) {
		log.Warn().Str("remote", r.RemoteAddr).Msg("invalid webhook signature")
		w.countWebhook("unknown", "invalid_signature")
		http.Error(rw, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var payload IngestionEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn().Err(err).Msg("failed to parse webhook payload")
		w.countWebhook("unknown", "invalid_json")
		http.Error(rw, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	log.Info().Str("action", payload.Action).Interface("task_id", payload.Task["id"]).Msg("received webhook")
	w.countWebhook(payload.Action, "received")

	if payload.Action != "TASK_CREATED" && payload.Action != "TASKS_BULK_CREATED" {
		writeJSON(rw, http.StatusOK, map[string]interface{}{"status": "acknowledged", "reason": "not a task creation event"})
		return
	}

	task, err := extractTaskData(payload)
	if err != nil {
		log.Warn().Err(err).Msg("failed to extract task data")
		w.countWebhook(payload.Action, "invalid_task_data")
		http.Error(rw, fmt.Sprintf("Invalid task data: %v", err), http.StatusBadRequest)
		return
	}

	if !rowsource.Supported(task.FileName) {
		writeJSON(rw, http.StatusOK, map[string]interface{}{"status": "acknowledged", "reason": "not a chart-review workbook"})
		return
	}

	if err := w.recorder.StoreWebhookEvent(r.Context(), payload.Action, body, task.TaskID); err != nil {
		// The audit trail is best effort.
		log.Warn().Err(err).Int64("task_id", task.TaskID).Msg("failed to store webhook event")
	}

	w.tasks.Add(1)
	go func() {
		defer w.tasks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), w.settings.TaskTimeout)
		defer cancel()

		logger := log.With().Int64("task_id", task.TaskID).Str("file", task.FileName).Logger()
		status, errorMsg := "completed", ""
		if err := w.Process(ctx, task); err != nil {
			logger.Error().Err(err).Msg("failed to process workbook task")
			status, errorMsg = "failed", err.Error()
		} else {
			logger.Info().Msg("processed workbook task")
		}
		w.recordOutcome(task.TaskID, status, errorMsg)
	}()

	writeJSON(rw, http.StatusAccepted, map[string]interface{}{
		"status":  "accepted",
		"task_id": task.TaskID,
		"message": "workbook processing started",
	})
}

// recordOutcome runs on its own context so a task that hit its deadline is
// still marked failed.
func (w *Worker) recordOutcome(taskID int64, status, errorMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	w.recorder.UpdateTaskStatus(ctx, taskID, status, errorMsg)
}

func (w *Worker) countWebhook(action, status string) {
	if w.metrics != nil {
		w.metrics.WebhooksReceived.WithLabelValues(action, status).Inc()
	}
}

func writeJSON(rw http.ResponseWriter, status int, body interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

// VerifySignature reports whether signature is the hex HMAC-SHA256 of body
// under secret.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(Sign(secret, body)))
}

// Sign returns the signature VerifySignature expects.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func extractTaskData(payload IngestionEvent) (*TaskData, error) {
	task := payload.Task
	if task == nil {
		return nil, errNoTask
	}

	taskID, ok := task["id"].(float64)
	if !ok {
		return nil, errNoTaskID
	}

	data, ok := task["data"].(map[string]interface{})
	if !ok {
		return nil, errNoData
	}

	var fileURL string
	for _, field := range fileFields {
		if u, ok := data[field].(string); ok && u != "" {
			fileURL = u
			break
		}
	}
	if fileURL == "" {
		return nil, errNoFileURL
	}

	fileName := fileURL
	if i := strings.LastIndex(fileName, "/"); i >= 0 {
		fileName = fileName[i+1:]
	}
	if i := strings.IndexAny(fileName, "?#"); i >= 0 {
		fileName = fileName[:i]
	}

	meta, _ := data["meta"].(map[string]interface{})
	if meta == nil {
		meta = make(map[string]interface{})
	}
	sourceName, _ := meta["source_name"].(string)
	if sourceName == "" {
		sourceName = "UNKNOWN"
	}

	return &TaskData{
		TaskID:     int64(taskID),
		FileURL:    fileURL,
		FileName:   fileName,
		SourceName: sourceName,
		Metadata:   meta,
	}, nil
}
