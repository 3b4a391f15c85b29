package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/dataset"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/storage"
)

func newInputsCmd() *cobra.Command {
	var dataFile string
	cmd := &cobra.Command{
		Use:   "inputs",
		Short: "Print the model input of every example, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := storage.ParseLocation(dataFile)
			if err != nil {
				return err
			}
			content, err := storage.ReadFile(cmd.Context(), loc, s3Config())
			if err != nil {
				return err
			}
			examples, err := dataset.Decode(loc.Base(), content)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ex := range examples {
				fmt.Fprintln(out, ex.ModelInput())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataFile, "data_file", "", "Corpus file written by build")
	_ = cmd.MarkFlagRequired("data_file")
	return cmd
}
