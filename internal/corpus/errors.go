package corpus

import "fmt"

// Reasons a record is skipped.
const (
	ReasonUndecodable  = "undecodable"
	ReasonMissingField = "missing_field"
	ReasonUnknownWork  = "unknown_work"
	ReasonUnknownBook  = "unknown_book"
)

// SourceMissingError means the raw export does not exist. The build cannot run.
type SourceMissingError struct {
	Path string
	Err  error
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf("scripture source not found: %s", e.Path)
}

func (e *SourceMissingError) Unwrap() error { return e.Err }

// SourceMalformedError describes one record that could not be placed in the
// taxonomy. The loader skips it and keeps going.
type SourceMalformedError struct {
	Record int
	Work   string
	Book   string
	Reason string
	Err    error
}

func (e *SourceMalformedError) Error() string {
	msg := fmt.Sprintf("record %d: %s (work %q, book %q)", e.Record, e.Reason, e.Work, e.Book)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceMalformedError) Unwrap() error { return e.Err }
