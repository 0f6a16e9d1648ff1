// Command tally analyzes evaluation result files and reports per-model
// quality, cost and failure patterns.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code. Fatal errors are
// printed to stderr as "error: <category>: <message>".
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		category := errorCategory(err)
		fmt.Fprintf(stderr, "error: %s: %v\n", category, err)
		if category == categoryUsage || category == domain.FailureConfig {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}

const (
	categoryUsage  = "usage"
	categoryExport = "export"
)

// usageError marks invalid command-line usage.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func errorCategory(err error) string {
	var (
		uerr *usageError
		xerr *ports.ExportError
	)
	switch {
	case errors.As(err, &uerr):
		return categoryUsage
	case errors.As(err, &xerr):
		return categoryExport
	default:
		return domain.FailureCategory(err)
	}
}
