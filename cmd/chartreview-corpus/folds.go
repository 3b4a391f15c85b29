package main

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/dataset"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/storage"
)

type foldsFlags struct {
	dataFile  string
	outputDir string
	folds     int
	seed      uint64
}

func newFoldsCmd() *cobra.Command {
	var f foldsFlags
	cmd := &cobra.Command{
		Use:   "folds",
		Short: "Split a corpus into cross-validation folds by admission",
		Long: `folds shuffles the admission ids of a corpus and writes
fold<N>/train.xlsx, fold<N>/eval.xlsx and fold<N>/test.xlsx under the
output directory. Every example of an admission lands in the same split.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFolds(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.dataFile, "data_file", "", "Corpus file written by build")
	cmd.Flags().StringVar(&f.outputDir, "output_dir", "", "Directory receiving one sub-directory per fold")
	cmd.Flags().IntVar(&f.folds, "folds", 10, "Number of folds")
	cmd.Flags().Uint64Var(&f.seed, "seed", 42, "Shuffle seed")
	_ = cmd.MarkFlagRequired("data_file")
	_ = cmd.MarkFlagRequired("output_dir")
	return cmd
}

func runFolds(cmd *cobra.Command, f foldsFlags) error {
	ctx := cmd.Context()

	in, err := storage.ParseLocation(f.dataFile)
	if err != nil {
		return err
	}
	content, err := storage.ReadFile(ctx, in, s3Config())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.dataFile, err)
	}
	examples, err := dataset.Decode(in.Base(), content)
	if err != nil {
		return err
	}

	folds, err := dataset.KFold(dataset.Admissions(examples), f.folds, f.seed)
	if err != nil {
		return err
	}

	root, err := storage.ParseLocation(f.outputDir)
	if err != nil {
		return err
	}
	for _, fold := range folds {
		dir, err := storage.Open(ctx, join(root, fmt.Sprintf("fold%d", fold.Index)), s3Config())
		if err != nil {
			return err
		}
		train, eval, test := fold.Partition(examples)
		for _, split := range []struct {
			name     string
			examples []chartreview.TrainingExample
		}{
			{"train.xlsx", train},
			{"eval.xlsx", eval},
			{"test.xlsx", test},
		} {
			name := split.name
			body, err := dataset.Encode(name, split.examples)
			if err != nil {
				return err
			}
			if err := dir.Put(ctx, name, body); err != nil {
				return fmt.Errorf("failed to write fold %d %s: %w", fold.Index, name, err)
			}
		}
		log.Info().
			Int("fold", fold.Index).
			Int("train", len(train)).
			Int("eval", len(eval)).
			Int("test", len(test)).
			Msg("fold written")
	}
	return nil
}

// join appends a path element to a directory location.
func join(dir storage.Location, elem string) storage.Location {
	sub := dir
	switch {
	case dir.Scheme == "file":
		sub.Path = filepath.Join(dir.Path, elem)
	case dir.Path == "":
		sub.Path = elem
	default:
		sub.Path = path.Join(dir.Path, elem)
	}
	return sub
}
