// Package models defines core data structures for verses, queries, and frequency results.
package models

import (
	"fmt"
	"time"
)

// Verse is a single scripture verse as loaded from the source export.
type Verse struct {
	ID       string `json:"id" db:"id"`
	Work     string `json:"work" db:"work"`
	Book     string `json:"book" db:"book"`
	Chapter  int    `json:"chapter" db:"chapter"`
	Number   int    `json:"verse" db:"verse"`
	Text     string `json:"text" db:"text"`
	Position int    `json:"position" db:"position"`
}

// Reference returns the conventional citation, e.g. "Alma 32:21".
func (v *Verse) Reference() string {
	return VerseReference(v.Book, v.Chapter, v.Number)
}

// VerseReference formats a citation from its parts.
func VerseReference(book string, chapter, verse int) string {
	return fmt.Sprintf("%s %d:%d", book, chapter, verse)
}

// BuildRecord describes one run of the offline build.
type BuildRecord struct {
	ID         string    `json:"id" db:"id"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	Verses     int       `json:"verses" db:"verses"`
	Skipped    int       `json:"skipped" db:"skipped"`
	Tokens     int       `json:"tokens" db:"tokens"`
	IndexPath  string    `json:"index_path" db:"index_path"`
	Digest     string    `json:"digest,omitempty" db:"digest"`
}
