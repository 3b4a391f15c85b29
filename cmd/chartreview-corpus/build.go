package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/corpus"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/dataset"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/rowsource"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/storage"
)

type buildFlags struct {
	dataDir           string
	outputFile        string
	suppressVagueWhen string
	excludeSheets     []string
	unpaired          string
	dateLayout        string
	workers           int
}

func newBuildCmd() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fold every workbook in a directory into one corpus file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.dataDir, "data_dir", "", "Directory of annotated workbooks")
	cmd.Flags().StringVar(&f.outputFile, "output_file", "", "Corpus file to write (.xlsx or .csv)")
	cmd.Flags().StringVar(&f.suppressVagueWhen, "suppress-vague-when", "", "Drop the vague marker when it equals this value")
	cmd.Flags().StringSliceVar(&f.excludeSheets, "exclude-sheet", rowsource.DefaultConfig().ExcludeSheets, "Sheet names that never hold annotations")
	cmd.Flags().StringVar(&f.unpaired, "unpaired-durations", string(chartreview.UnpairedDrop), "Trailing unpaired duration start: drop or error")
	cmd.Flags().StringVar(&f.dateLayout, "date-layout", chartreview.DefaultAdmissionDateLayout, "Go layout used to render admission dates")
	cmd.Flags().IntVar(&f.workers, "workers", 4, "Workbooks folded concurrently")
	_ = cmd.MarkFlagRequired("data_dir")
	_ = cmd.MarkFlagRequired("output_file")
	return cmd
}

func runBuild(cmd *cobra.Command, f buildFlags) error {
	ctx := cmd.Context()

	merger, err := chartreview.NewMerger(chartreview.Options{
		SuppressVagueWhen:   f.suppressVagueWhen,
		AdmissionDateLayout: f.dateLayout,
		UnpairedDurations:   chartreview.UnpairedPolicy(f.unpaired),
	})
	if err != nil {
		return err
	}

	cfg := rowsource.DefaultConfig()
	cfg.ExcludeSheets = f.excludeSheets

	in, err := storage.ParseLocation(f.dataDir)
	if err != nil {
		return err
	}
	out, err := storage.ParseLocation(f.outputFile)
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, in, s3Config())
	if err != nil {
		return err
	}

	log.Info().
		Str("data_dir", f.dataDir).
		Str("output_file", f.outputFile).
		Int("workers", f.workers).
		Msg("building corpus")

	c, err := corpus.NewBuilder(rowsource.NewReader(cfg), merger, nil, f.workers).Build(ctx, store)
	if err != nil {
		return err
	}

	body, err := dataset.Encode(out.Base(), c.Examples)
	if err != nil {
		return err
	}
	if err := storage.WriteFile(ctx, out, body, s3Config()); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.outputFile, err)
	}

	log.Info().
		Str("run_id", c.RunID).
		Int("files", len(c.Files)).
		Int("examples", len(c.Examples)).
		Str("output_file", f.outputFile).
		Msg("corpus written")
	return nil
}
