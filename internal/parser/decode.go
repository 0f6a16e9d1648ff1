package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/ahrav/go-tally/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// legacyEncodings are tried, in order, when the payload is not valid UTF-8.
// Harness exports produced on Windows are commonly Windows-1252.
var legacyEncodings = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// Decode turns raw bytes into a generic document. A leading UTF-8 byte order
// mark is ignored, invalid UTF-8 is transcoded from the legacy encodings, and
// a stream of several JSON values (JSON Lines) decodes to a sequence.
// Numbers are preserved as json.Number.
func Decode(data []byte) (any, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.NewMalformedInputError("", "input is empty", nil)
	}

	if utf8.Valid(data) {
		return decodeJSON(data)
	}

	var lastErr error
	for _, enc := range legacyEncodings {
		converted, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			lastErr = err
			continue
		}
		doc, err := decodeJSON(converted)
		if err != nil {
			lastErr = err
			continue
		}
		return doc, nil
	}
	return nil, domain.NewMalformedInputError("", "input could not be decoded with any supported encoding", lastErr)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var values []any
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewMalformedInputError("", "input is not valid JSON", err)
		}
		values = append(values, v)
	}

	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}

// ParseBytes decodes, unwraps and parses a payload. source names the input
// in error messages.
func ParseBytes(source string, data []byte) (Result, error) {
	doc, err := Decode(data)
	if err != nil {
		return Result{}, withSource(source, err)
	}
	payload, err := Unwrap(doc)
	if err != nil {
		return Result{}, withSource(source, err)
	}
	res, err := Parse(payload)
	if err != nil {
		return Result{}, withSource(source, err)
	}
	return res, nil
}

// ParseReader reads r fully and parses it.
func ParseReader(source string, r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return ParseBytes(source, data)
}

// ParseFile reads and parses the results file at path. A missing file
// matches domain.ErrInputNotFound.
func ParseFile(path string) (Result, error) {
	data, err := ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return ParseBytes(path, data)
}

// ReadFile reads the results file at path, mapping a missing file to
// domain.ErrInputNotFound.
func ReadFile(path string) ([]byte, error) {
	// Clean the path to prevent directory traversal attacks.
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func withSource(source string, err error) error {
	var mie *domain.MalformedInputError
	if errors.As(err, &mie) && mie.Source == "" {
		return domain.NewMalformedInputError(source, mie.Reason, mie.Err)
	}
	return err
}
