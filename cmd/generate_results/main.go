// Command generate_results writes a synthetic promptfoo-style evaluation
// export for exercising tally on realistic volumes.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/testutils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		tests    int
		seed     int64
		unusable float64
		output   string
	)

	cmd := &cobra.Command{
		Use:           "generate_results",
		Short:         "Generate a synthetic evaluation results file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tests <= 0 {
				return fmt.Errorf("--tests must be positive, got %d", tests)
			}
			if unusable < 0 || unusable > 1 {
				return fmt.Errorf("--unusable must be within [0, 1], got %g", unusable)
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			export := testutils.GenerateResults(testutils.GeneratorConfig{
				Tests:        tests,
				UnusableRate: unusable,
			}, seed)
			if err := testutils.SaveResults(export, output); err != nil {
				return fmt.Errorf("failed to save results: %w", err)
			}

			stats := testutils.ComputeResultsStatistics(export)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated evaluation results:\n")
			fmt.Fprintf(out, "- Path: %s\n", output)
			fmt.Fprintf(out, "- Seed: %d\n", seed)
			fmt.Fprintf(out, "- Entries: %d (%d unusable)\n", stats.Entries, stats.Unusable)
			fmt.Fprintf(out, "- Passed/Failed: %d/%d\n", stats.Passed, stats.Failed)
			fmt.Fprintf(out, "- Failures by category: %v\n", stats.FailuresCategory)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&tests, "tests", 500, "number of test cases; every model runs each one")
	f.Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	f.Float64Var(&unusable, "unusable", 0.02, "fraction of entries emitted without a provider id")
	f.StringVarP(&output, "output", "o", "testdata/generated_results.json", "output file path")
	return cmd
}
