// Package config loads the ingestion worker configuration from the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/rowsource"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/storage"
)

// Worker holds application configuration
type Worker struct {
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	Port            string        `envconfig:"PORT" default:"8080"`
	WebhookSecret   string        `envconfig:"WEBHOOK_SECRET"`
	S3Region        string        `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint      string        `envconfig:"S3_ENDPOINT"` // For testing with MinIO
	MaxWorkers      int           `envconfig:"MAX_WORKERS" default:"4"`
	TaskTimeout     time.Duration `envconfig:"TASK_TIMEOUT" default:"5m"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	CreateDevTables bool          `envconfig:"CREATE_DEV_TABLES" default:"false"`

	SuppressVagueWhen   string   `envconfig:"SUPPRESS_VAGUE_WHEN"`
	UnpairedDurations   string   `envconfig:"UNPAIRED_DURATIONS" default:"drop"`
	AdmissionDateLayout string   `envconfig:"ADMISSION_DATE_LAYOUT" default:"2006-01-02 15:04:05"`
	ExcludeSheets       []string `envconfig:"EXCLUDE_SHEETS"`
}

// Load reads envFile when it exists, then the process environment.
func Load(envFile string) (*Worker, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Worker
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges that envconfig cannot express.
func (c Worker) Validate() error {
	return validation.Errors{
		"PORT":               validation.Validate(c.Port, validation.Required, is.Port),
		"MAX_WORKERS":        validation.Validate(c.MaxWorkers, validation.Required, validation.Min(1), validation.Max(64)),
		"TASK_TIMEOUT":       validation.Validate(c.TaskTimeout, validation.Min(time.Second)),
		"UNPAIRED_DURATIONS": validation.Validate(c.UnpairedDurations, validation.In("drop", "error")),
		"LOG_LEVEL":          validation.Validate(c.LogLevel, validation.In("debug", "info", "warn", "error")),
	}.Filter()
}

// MergeOptions returns the merger options selected by the environment.
func (c Worker) MergeOptions() chartreview.Options {
	return chartreview.Options{
		SuppressVagueWhen:   c.SuppressVagueWhen,
		AdmissionDateLayout: c.AdmissionDateLayout,
		UnpairedDurations:   chartreview.UnpairedPolicy(c.UnpairedDurations),
	}
}

// RowSource returns the workbook reader configuration.
func (c Worker) RowSource() rowsource.Config {
	cfg := rowsource.DefaultConfig()
	if len(c.ExcludeSheets) > 0 {
		cfg.ExcludeSheets = c.ExcludeSheets
	}
	return cfg
}

// S3 returns the object store settings.
func (c Worker) S3() storage.S3Config {
	return storage.S3Config{Region: c.S3Region, Endpoint: c.S3Endpoint}
}
