// Package corpus loads the raw scripture export into an ordered skeleton of
// standard works, books and verses.
package corpus

import "github.com/hyperjump/kazoeru/internal/models"

// Book is an ordered run of verses belonging to one book.
type Book struct {
	Name   string
	Work   string
	Verses []*models.Verse
}

// Work is a standard work and its books in canonical order.
type Work struct {
	Name  string
	Books []*Book
}

// Corpus is every loaded standard work in canonical order. Works and books
// with no verses in the source are omitted.
type Corpus struct {
	Works []*Work
}

// VerseCount returns the number of verses across the corpus.
func (c *Corpus) VerseCount() int {
	n := 0
	for _, w := range c.Works {
		for _, b := range w.Books {
			n += len(b.Verses)
		}
	}
	return n
}

// Verses calls fn for every verse in corpus order, stopping at the first error.
func (c *Corpus) Verses(fn func(v *models.Verse) error) error {
	for _, w := range c.Works {
		for _, b := range w.Books {
			for _, v := range b.Verses {
				if err := fn(v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Record is one verse object of the scripture JSON export. Unknown fields are ignored.
type Record struct {
	VolumeTitle   string `json:"volume_title"`
	BookTitle     string `json:"book_title"`
	ChapterNumber int    `json:"chapter_number"`
	VerseNumber   int    `json:"verse_number"`
	ScriptureText string `json:"scripture_text"`
}

// Stats counts what the loader read and skipped.
type Stats struct {
	Records         int            `json:"records"`
	Verses          int            `json:"verses"`
	Skipped         int            `json:"skipped"`
	SkippedByReason map[string]int `json:"skipped_by_reason,omitempty"`
}

func (s *Stats) skip(reason string) {
	s.Skipped++
	if s.SkippedByReason == nil {
		s.SkippedByReason = make(map[string]int)
	}
	s.SkippedByReason[reason]++
}
