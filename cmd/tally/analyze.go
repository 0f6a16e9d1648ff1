package main

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/domain"
)

const stdinPath = "-"

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze one evaluation results file",
		Long:  "Analyze reads an evaluation results file (JSON or JSON Lines; \"-\" for stdin) and prints a report.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			var summary domain.AnalysisSummary
			if args[0] == stdinPath {
				summary, err = rt.svc.AnalyzeReader(cmd.Context(), "stdin", opts.stdin)
			} else {
				summary, err = rt.svc.AnalyzeFile(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			rt.log.Info("analysis complete",
				"source", summary.Source,
				"records", summary.TotalTests,
				"skipped", summary.SkippedRecords,
				"models", len(summary.PerModel),
			)
			if summary.SkippedRecords > 0 {
				rt.log.Warn("unusable records skipped", "count", summary.SkippedRecords)
			}
			return opts.emit(cmd, rt, summary)
		},
	}
}
