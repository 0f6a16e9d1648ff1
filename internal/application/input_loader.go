package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ahrav/go-tally/internal/parser"
)

// InputLoader reads and parses evaluation result files, caching parse
// results by the SHA-256 of their content so duplicate inputs in one
// batch are decoded once.
// InputLoader implements analysis.Loader and is safe for concurrent use.
type InputLoader struct {
	// cache stores parse results indexed by content hash.
	// WARNING: Cached results are shared between callers and MUST NOT be
	// mutated.
	cache   map[string]parser.Result
	cacheMu sync.RWMutex
	// sf collapses concurrent parses of identical content.
	sf singleflight.Group
}

// NewInputLoader creates a loader with an empty cache.
func NewInputLoader() *InputLoader {
	return &InputLoader{cache: make(map[string]parser.Result)}
}

// Load reads path and returns its parse result.
// Load returns domain.ErrInputNotFound for a missing file and a
// *domain.MalformedInputError for an unusable payload.
func (l *InputLoader) Load(ctx context.Context, path string) (parser.Result, error) {
	if err := ctx.Err(); err != nil {
		return parser.Result{}, err
	}
	data, err := parser.ReadFile(path)
	if err != nil {
		return parser.Result{}, err
	}
	return l.load(path, data)
}

// LoadFromReader reads all of r and returns its parse result, labelling
// diagnostics with source.
func (l *InputLoader) LoadFromReader(ctx context.Context, source string, r io.Reader) (parser.Result, error) {
	if err := ctx.Err(); err != nil {
		return parser.Result{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return parser.Result{}, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return l.load(source, data)
}

func (l *InputLoader) load(source string, data []byte) (parser.Result, error) {
	hash := contentHash(data)

	v, err, _ := l.sf.Do(hash, func() (any, error) {
		// Check the cache inside singleflight to close the race between
		// the lookup and group execution.
		if res, ok := l.cached(hash); ok {
			return res, nil
		}
		res, err := parser.ParseBytes(source, data)
		if err != nil {
			return nil, err
		}
		l.store(hash, res)
		return res, nil
	})
	if err != nil {
		return parser.Result{}, err
	}
	return v.(parser.Result), nil
}

// Cached reports how many distinct inputs have been parsed.
func (l *InputLoader) Cached() int {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	return len(l.cache)
}

func (l *InputLoader) cached(hash string) (parser.Result, bool) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	res, ok := l.cache[hash]
	return res, ok
}

func (l *InputLoader) store(hash string, res parser.Result) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	l.cache[hash] = res
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
