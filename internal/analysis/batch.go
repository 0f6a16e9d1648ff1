package analysis

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/parser"
)

// Loader produces the parse result for one input path.
type Loader interface {
	Load(ctx context.Context, path string) (parser.Result, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (parser.Result, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string) (parser.Result, error) { return f(ctx, path) }

// FileLoader parses files directly from disk.
var FileLoader Loader = LoaderFunc(func(_ context.Context, path string) (parser.Result, error) {
	return parser.ParseFile(path)
})

// FileAnalysis is the independent result of analyzing one input.
type FileAnalysis struct {
	Path    string
	Result  parser.Result
	Summary domain.AnalysisSummary
}

// AnalyzeFiles analyzes every path in its own task, at most workers at a
// time (GOMAXPROCS when workers <= 0). Tasks share no mutable state. Results
// keep the order of paths. The first failure cancels the remaining tasks
// and no partial results are returned.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, loader Loader, paths []string, workers int) ([]FileAnalysis, error) {
	if loader == nil {
		loader = FileLoader
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]FileAnalysis, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", path, err)
			}
			out[i] = FileAnalysis{
				Path:    path,
				Result:  res,
				Summary: a.Analyze(gctx, path, res),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge combines independent file analyses into one summary computed over
// the union of their records, in input order. Inputs are expected to be
// runs of the same suite, so records sharing a test id fall into one
// TestStats row regardless of file. It is a pure function of its inputs
// and performs no I/O.
func (a *Analyzer) Merge(source string, analyses []FileAnalysis) domain.AnalysisSummary {
	var (
		records []domain.CanonicalRecord
		skipped int
	)
	for _, fa := range analyses {
		records = append(records, fa.Result.Records...)
		skipped += fa.Result.Skipped
	}
	return a.Summarize(source, records, skipped)
}
