package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/logging"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/storage"
)

// Global flags
var (
	logLevelFlag   string
	s3RegionFlag   string
	s3EndpointFlag string
)

// rootCmd is the main Cobra command for the chartreview-corpus CLI.
var rootCmd = &cobra.Command{
	Use:   "chartreview-corpus",
	Short: "Build seq2seq training corpora from chart-review workbooks",
	Long: `chartreview-corpus folds annotated chart-review workbooks into
"event detection" and "time extraction" training examples.

Locations may be local paths or s3://bucket/prefix URLs.

Examples:
  chartreview-corpus build --data_dir ./annotations --output_file corpus.xlsx
  chartreview-corpus build --data_dir s3://charts/2024 --output_file s3://corpora/2024.xlsx
  chartreview-corpus folds --data_file corpus.xlsx --output_dir ./folds
  chartreview-corpus inputs --data_file corpus.xlsx`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logLevelFlag, false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&s3RegionFlag, "s3-region", "us-east-1", "AWS region for s3:// locations")
	rootCmd.PersistentFlags().StringVar(&s3EndpointFlag, "s3-endpoint", "", "Custom S3 endpoint (MinIO)")

	rootCmd.AddCommand(newBuildCmd(), newFoldsCmd(), newInputsCmd())
}

func s3Config() storage.S3Config {
	return storage.S3Config{Region: s3RegionFlag, Endpoint: s3EndpointFlag}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
