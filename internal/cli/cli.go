// Package cli holds the plumbing shared by the conversion executables:
// standard-stream handling, logger construction and the exit-code policy.
package cli

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/scieloorg/ioisis/pkg/charset"
	"github.com/scieloorg/ioisis/pkg/iso2709"
	"github.com/scieloorg/ioisis/pkg/logging"
	"github.com/scieloorg/ioisis/pkg/mst"
)

// Exit codes shared by every tool.
const (
	ExitOK     = 0
	ExitFormat = 1
	ExitIO     = 2
	ExitUsage  = 64
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// OpenInput opens path for reading; "-" means standard input.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// OpenOutput opens path for writing; "-" means standard output.
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// NewLogger builds the stderr logger used by the tools at -v (debug) and
// -V (trace).
func NewLogger(debug, trace bool) logr.Logger {
	switch {
	case trace:
		return logging.NewTextLogger(os.Stderr, logging.TRACE, true)
	case debug:
		return logging.NewTextLogger(os.Stderr, logging.DEBUG, true)
	default:
		return logr.Discard()
	}
}

// ExitCode maps an error to the tool exit code: data problems are 1 and
// anything environmental is 2.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		formatErr   *iso2709.FormatError
		truncErr    *iso2709.TruncatedError
		overflowErr *iso2709.OverflowError
		encErr      *charset.EncodingError
		xrfErr      *mst.XrfError
		jsonSyntax  *json.SyntaxError
		jsonType    *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &formatErr),
		errors.As(err, &truncErr),
		errors.As(err, &overflowErr),
		errors.As(err, &encErr),
		errors.As(err, &xrfErr),
		errors.As(err, &jsonSyntax),
		errors.As(err, &jsonType):
		return ExitFormat
	default:
		return ExitIO
	}
}
