package models

import (
	"fmt"
	"strings"
)

// Granularity is the aggregation scope of a frequency query.
type Granularity string

const (
	// GranularityAll reports one row for the whole corpus.
	GranularityAll Granularity = "all"
	// GranularityWork reports one row per standard work.
	GranularityWork Granularity = "by_work"
	// GranularityBook reports one row per book.
	GranularityBook Granularity = "by_book"
)

// ParseGranularity accepts the canonical names plus a few spellings used by
// the CLI and older clients ("ALL", "work", "book", "BY_BOOK").
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "corpus":
		return GranularityAll, nil
	case "by_work", "work", "works", "by-work":
		return GranularityWork, nil
	case "by_book", "book", "books", "by-book":
		return GranularityBook, nil
	}
	return "", &InvalidQueryError{Field: "granularity", Reason: fmt.Sprintf("unknown granularity %q", s)}
}

// FrequencyQuery asks how often a word or exact phrase occurs per scope.
type FrequencyQuery struct {
	Term        string      `json:"term"`
	Granularity Granularity `json:"granularity,omitempty"`
}

// Validate rejects blank terms and unknown granularities. An unset
// granularity defaults to GranularityAll.
func (q *FrequencyQuery) Validate() error {
	if strings.TrimSpace(q.Term) == "" {
		return &InvalidQueryError{Field: "term", Reason: "term cannot be empty"}
	}
	if q.Granularity == "" {
		q.Granularity = GranularityAll
	}
	g, err := ParseGranularity(string(q.Granularity))
	if err != nil {
		return err
	}
	q.Granularity = g
	return nil
}

// VerseQuery asks for the verses that contain a word or exact phrase.
type VerseQuery struct {
	Term   string `json:"term"`
	Work   string `json:"work,omitempty"`
	Book   string `json:"book,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Validate rejects blank terms and clamps the page to [1, maxLimit].
func (q *VerseQuery) Validate(defaultLimit, maxLimit int) error {
	if strings.TrimSpace(q.Term) == "" {
		return &InvalidQueryError{Field: "term", Reason: "term cannot be empty"}
	}
	if q.Offset < 0 {
		return &InvalidQueryError{Field: "offset", Reason: "offset cannot be negative"}
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// InvalidQueryError is returned for a query that cannot be executed. It is a
// caller error: the query is rejected before touching the index.
type InvalidQueryError struct {
	Field  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Reason)
}
