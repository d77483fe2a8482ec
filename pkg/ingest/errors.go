package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrNoDrivers   = errors.New("no usable driver data")
	ErrMissingFile = errors.New("required file missing")
)

// ParseError signals a file level failure: the input is malformed, empty or
// missing. It aborts the pipeline run.
type ParseError struct {
	Op     string // discovery, assemble, laps, weather, sections
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatError describes a single row that does not match the expected layout.
// Rows carrying a FormatError are skipped and counted, never fatal.
type FormatError struct {
	Line    int
	Columns int
	Want    int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: got %d columns, want at least %d",
		e.Line, e.Columns, e.Want)
}

// Stats counts what happened to the rows of one pass.
type Stats struct {
	Lines   int `json:"lines"`   // data lines seen (header excluded)
	Matched int `json:"matched"` // lines that contributed data
	Skipped int `json:"skipped"` // lines rejected for bad values
	Format  int `json:"format"`  // lines rejected for a short column count
}

// Add merges o into s.
func (s *Stats) Add(o Stats) {
	s.Lines += o.Lines
	s.Matched += o.Matched
	s.Skipped += o.Skipped
	s.Format += o.Format
}
