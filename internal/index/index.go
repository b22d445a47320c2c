// Package index holds the aggregated, immutable frequency index and its
// on-disk form.
package index

import (
	"time"

	"github.com/hyperjump/kazoeru/internal/models"
)

// SchemaVersion is the version of the persisted document written by Save.
const SchemaVersion = 1

// Boundary marks the end of a book in a work-level token stream. It can
// never be produced by the tokenizer, so no phrase window containing it
// can match.
const Boundary = "\x00"

// Book is the token-level view of one book.
type Book struct {
	Name        string
	Work        string // name of the owning standard work
	Tokens      []string
	Unigrams    map[string]int
	TotalTokens int
}

// NewBook counts tokens into a Book. tokens is retained, not copied.
func NewBook(work, name string, tokens []string) *Book {
	if tokens == nil {
		tokens = []string{}
	}
	counts := make(map[string]int, len(tokens)/4+1)
	for _, t := range tokens {
		counts[t]++
	}
	return &Book{
		Name:        name,
		Work:        work,
		Tokens:      tokens,
		Unigrams:    counts,
		TotalTokens: len(tokens),
	}
}

// StandardWork rolls up its books. Token sequences stay with the books.
type StandardWork struct {
	Name        string
	Books       []*Book
	Unigrams    map[string]int
	TotalTokens int
}

// NewStandardWork sums the unigram tables and totals of books.
func NewStandardWork(name string, books []*Book) *StandardWork {
	w := &StandardWork{
		Name:     name,
		Books:    books,
		Unigrams: make(map[string]int),
	}
	for _, b := range books {
		w.TotalTokens += b.TotalTokens
		for t, n := range b.Unigrams {
			w.Unigrams[t] += n
		}
	}
	return w
}

// Book returns the named book, or nil.
func (w *StandardWork) Book(name string) *Book {
	for _, b := range w.Books {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Index is the whole corpus after aggregation. It is never modified once
// built or loaded and may be read from any number of goroutines.
type Index struct {
	SchemaVersion int
	BuildID       string
	BuiltAt       time.Time
	Works         []*StandardWork
	Unigrams      map[string]int
	TotalTokens   int
}

// New rolls works up into a corpus-wide Index.
func New(works []*StandardWork) *Index {
	idx := &Index{
		SchemaVersion: SchemaVersion,
		Works:         works,
		Unigrams:      make(map[string]int),
	}
	for _, w := range works {
		idx.TotalTokens += w.TotalTokens
		for t, n := range w.Unigrams {
			idx.Unigrams[t] += n
		}
	}
	return idx
}

// Work returns the named standard work, or nil.
func (idx *Index) Work(name string) *StandardWork {
	for _, w := range idx.Works {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// Book returns a book by work and book name, or nil.
func (idx *Index) Book(work, name string) *Book {
	if w := idx.Work(work); w != nil {
		return w.Book(name)
	}
	return nil
}

// BookCount returns the number of books across all works.
func (idx *Index) BookCount() int {
	n := 0
	for _, w := range idx.Works {
		n += len(w.Books)
	}
	return n
}

// Summary reports per-work totals in index order.
func (idx *Index) Summary() []models.WorkSummary {
	out := make([]models.WorkSummary, 0, len(idx.Works))
	for _, w := range idx.Works {
		out = append(out, models.WorkSummary{
			Name:        w.Name,
			Books:       len(w.Books),
			TotalTokens: w.TotalTokens,
			Vocabulary:  len(w.Unigrams),
		})
	}
	return out
}
