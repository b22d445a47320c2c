package index

import "fmt"

// IndexLoadError means the persisted index is missing, unreadable or not
// compatible with this build. Serving cannot start without an index.
type IndexLoadError struct {
	Path string
	Err  error
}

func (e *IndexLoadError) Error() string {
	return fmt.Sprintf("load index %s: %v", e.Path, e.Err)
}

func (e *IndexLoadError) Unwrap() error { return e.Err }
