package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/database"
)

// Process downloads the task's workbook, folds it and stores the examples.
// Nothing but the document row is written when the workbook is malformed.
func (w *Worker) Process(ctx context.Context, task *TaskData) error {
	content, err := w.fetcher.Fetch(ctx, task.FileURL)
	if err != nil {
		return fmt.Errorf("failed to download workbook: %w", err)
	}

	documentID, err := w.recorder.CreateDocument(ctx, database.Document{
		TaskID:     task.TaskID,
		FileName:   task.FileName,
		SourceName: task.SourceName,
		Metadata:   task.Metadata,
	})
	if err != nil {
		return err
	}

	examples, report, err := w.builder.BuildFile(task.FileName, content)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	if err := w.recorder.StoreExamples(ctx, documentID, runID, examples); err != nil {
		return err
	}
	if err := w.recorder.StoreProcessingSummary(ctx, documentID, report); err != nil {
		return err
	}

	log.Info().
		Int64("task_id", task.TaskID).
		Int64("document_id", documentID).
		Str("run_id", runID).
		Int("examples", len(examples)).
		Msg("stored workbook examples")
	return nil
}
