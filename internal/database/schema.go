package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EnsureSchema checks that the stage schema exists. With createTables set it
// creates the tables this worker writes; production relies on migrations.
func (s *Store) EnsureSchema(ctx context.Context, createTables bool) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.schemata
			WHERE schema_name = 'stage'
		)
	`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check schema existence: %w", err)
	}

	if createTables {
		return s.createTables(ctx)
	}
	if !exists {
		log.Warn().Msg("stage schema does not exist; it should be created by database migrations")
	}
	return nil
}

func (s *Store) createTables(ctx context.Context) error {
	log.Info().Msg("creating stage tables (development mode)")

	queries := []string{
		`CREATE SCHEMA IF NOT EXISTS stage`,
		`CREATE TABLE IF NOT EXISTS stage.chartreview_documents (
			id BIGSERIAL PRIMARY KEY,
			task_id BIGINT,
			file_name TEXT,
			source_name TEXT,
			metadata JSONB,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS stage.training_examples (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT REFERENCES stage.chartreview_documents(id),
			run_id TEXT,
			position INTEGER,
			aid TEXT,
			pid TEXT,
			prefix TEXT,
			input_text TEXT,
			target_text TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS stage.document_processing_log (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT,
			task_id BIGINT,
			processing_status TEXT,
			processing_stage TEXT,
			processing_metrics JSONB,
			rows_processed INTEGER,
			error_message TEXT,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS stage.event_log (
			id BIGSERIAL PRIMARY KEY,
			event_type TEXT,
			event_action TEXT,
			task_id BIGINT,
			payload JSONB,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}
