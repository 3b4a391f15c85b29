// Package database stores training examples and processing bookkeeping in
// Postgres.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/corpus"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/metrics"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// Document describes the workbook a batch of examples came from.
type Document struct {
	TaskID     int64
	FileName   string
	SourceName string
	Metadata   map[string]interface{}
}

// Store wraps the stage schema tables.
type Store struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

// NewStore returns a Store. m may be nil.
func NewStore(db *sql.DB, m *metrics.Metrics) *Store {
	return &Store{db: db, metrics: m}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		s.countError("health_check")
		return err
	}
	return nil
}

func (s *Store) countError(operation string) {
	if s.metrics != nil {
		s.metrics.DatabaseErrors.WithLabelValues(operation).Inc()
	}
}

// CreateDocument records a workbook and opens its processing log entry.
func (s *Store) CreateDocument(ctx context.Context, doc Document) (int64, error) {
	metadataJSON := []byte("{}")
	if doc.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(doc.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	var documentID int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO stage.chartreview_documents (
			task_id, file_name, source_name, metadata, created_at
		) VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`, doc.TaskID, doc.FileName, doc.SourceName, metadataJSON).Scan(&documentID)
	if err != nil {
		s.countError("create_document")
		return 0, fmt.Errorf("failed to create document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stage.document_processing_log (
			document_id, task_id, processing_status, processing_stage,
			started_at
		) VALUES ($1, $2, 'processing', 'chartreview_corpus', NOW())
	`, documentID, doc.TaskID)
	if err != nil {
		log.Warn().Err(err).Int64("document_id", documentID).Msg("failed to create processing log")
	}

	return documentID, nil
}

// StoreExamples bulk inserts examples in corpus order within one transaction.
func (s *Store) StoreExamples(ctx context.Context, documentID int64, runID string, examples []chartreview.TrainingExample) error {
	if len(examples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.countError("begin_transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema("stage", "training_examples",
		"document_id", "run_id", "position", "aid", "pid", "prefix",
		"input_text", "target_text", "created_at",
	))
	if err != nil {
		s.countError("prepare_insert")
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, ex := range examples {
		_, err = stmt.ExecContext(ctx,
			documentID, runID, i,
			ex.AdmissionID, ex.PatientID, ex.Prefix,
			ex.InputText, ex.TargetText, now,
		)
		if err != nil {
			s.countError("insert_example")
			return fmt.Errorf("failed to queue example %d: %w", i, err)
		}
	}

	if _, err = stmt.ExecContext(ctx); err != nil {
		s.countError("exec_bulk_insert")
		return fmt.Errorf("failed to execute bulk insert: %w", err)
	}
	if err = tx.Commit(); err != nil {
		s.countError("commit_transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Int64("document_id", documentID).Int("examples", len(examples)).Msg("stored training examples")
	return nil
}

// summary is the processing_metrics payload of a folded workbook.
func summary(report corpus.FileReport) map[string]interface{} {
	m := map[string]interface{}{
		"sheet":             report.Sheet,
		"rows":              report.Rows,
		"blank_lines":       report.BlankLines,
		"event_examples":    report.Events.Examples,
		"event_merged":      report.Events.Merged,
		"event_discarded":   report.Events.Discarded,
		"time_examples":     report.Times.Examples,
		"time_merged":       report.Times.Merged,
		"time_discarded":    report.Times.Discarded,
		"durations_paired":  report.Times.Deferred,
		"unpaired_duration": report.Unpaired != nil,
	}
	if report.Unpaired != nil {
		// The start row was held back, so it is not a paired duration.
		m["durations_paired"] = report.Times.Deferred - 1
		m["unpaired_line"] = report.Unpaired.Line
	}
	return m
}

// StoreProcessingSummary closes the processing log entry of a document.
func (s *Store) StoreProcessingSummary(ctx context.Context, documentID int64, report corpus.FileReport) error {
	metricsJSON, err := json.Marshal(summary(report))
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE stage.document_processing_log
		SET
			processing_status = 'completed',
			processing_stage = 'chartreview_corpus_built',
			completed_at = NOW(),
			processing_metrics = $1,
			rows_processed = $2
		WHERE document_id = $3
	`, metricsJSON, report.Rows, documentID)
	if err != nil {
		s.countError("update_summary")
		return fmt.Errorf("failed to update processing log: %w", err)
	}
	return nil
}

// UpdateTaskStatus records the outcome of a task. Failures are logged only.
func (s *Store) UpdateTaskStatus(ctx context.Context, taskID int64, status, errorMsg string) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE stage.document_processing_log
		SET processing_status = $1,
			error_message = $2,
			updated_at = NOW()
		WHERE task_id = $3
	`, status, errorMsg, taskID)
	if err != nil {
		log.Error().Err(err).Int64("task_id", taskID).Msg("failed to update task status")
		s.countError("update_status")
	}
}

// StoreWebhookEvent keeps the raw webhook for audit.
func (s *Store) StoreWebhookEvent(ctx context.Context, action string, payload []byte, taskID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage.event_log (
			event_type, event_action, task_id, payload, created_at
		) VALUES ($1, $2, $3, $4, NOW())
	`, "webhook", action, taskID, payload)
	if err != nil {
		s.countError("store_webhook")
	}
	return err
}
