package main

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/domain"
)

func newCompareCmd(opts *options) *cobra.Command {
	var perFile bool

	cmd := &cobra.Command{
		Use:   "compare <file>...",
		Short: "Analyze several result files and compare them together",
		Long: "Compare analyzes every file independently and concurrently, then reports on the union of " +
			"their records. Identical files are parsed once.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			files, combined, err := rt.svc.Compare(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, fa := range files {
				rt.log.Info("file analyzed",
					"path", fa.Path,
					"records", fa.Summary.TotalTests,
					"skipped", fa.Summary.SkippedRecords,
					"success_rate", fa.Summary.OverallSuccessRate,
				)
			}

			var perFileSummaries []domain.AnalysisSummary
			if perFile {
				for _, fa := range files {
					perFileSummaries = append(perFileSummaries, fa.Summary)
				}
			}
			return opts.emit(cmd, rt, combined, perFileSummaries...)
		},
	}
	cmd.Flags().BoolVar(&perFile, "per-file", false, "also print a report for every input file")
	return cmd
}
