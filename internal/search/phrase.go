package search

import (
	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/models"
)

// CountPhrase counts the positions in seq where phrase occurs exactly, in
// order. Windows that contain index.Boundary never match.
func CountPhrase(seq, phrase []string) int {
	n := len(phrase)
	if n == 0 || n > len(seq) {
		return 0
	}
	count := 0
outer:
	for i := 0; i+n <= len(seq); i++ {
		for j := 0; j < n; j++ {
			if seq[i+j] != phrase[j] || seq[i+j] == index.Boundary {
				continue outer
			}
		}
		count++
	}
	return count
}

// counter tallies term occurrences per book, work and corpus. Single
// tokens read the precomputed unigram tables; phrases scan each book once
// and sum upward.
type counter struct {
	tokens []string
	books  map[*index.Book]int
}

func newCounter(idx *index.Index, tokens []string) *counter {
	c := &counter{tokens: tokens}
	if len(tokens) > 1 {
		c.books = make(map[*index.Book]int, idx.BookCount())
		for _, w := range idx.Works {
			for _, b := range w.Books {
				c.books[b] = CountPhrase(b.Tokens, tokens)
			}
		}
	}
	return c
}

func (c *counter) book(b *index.Book) int {
	if c.books == nil {
		return b.Unigrams[c.tokens[0]]
	}
	return c.books[b]
}

func (c *counter) work(w *index.StandardWork) int {
	if c.books == nil {
		return w.Unigrams[c.tokens[0]]
	}
	n := 0
	for _, b := range w.Books {
		n += c.books[b]
	}
	return n
}

func (c *counter) corpus(idx *index.Index) int {
	if c.books == nil {
		return idx.Unigrams[c.tokens[0]]
	}
	n := 0
	for _, w := range idx.Works {
		n += c.work(w)
	}
	return n
}

// Frequencies returns one unranked row per scope at granularity g, in
// index order.
func Frequencies(idx *index.Index, tokens []string, g models.Granularity) []*models.ResultRow {
	c := newCounter(idx, tokens)
	switch g {
	case models.GranularityWork:
		rows := make([]*models.ResultRow, 0, len(idx.Works))
		for _, w := range idx.Works {
			rows = append(rows, models.NewResultRow(w.Name, w.Name, c.work(w), w.TotalTokens))
		}
		return rows
	case models.GranularityBook:
		rows := make([]*models.ResultRow, 0, idx.BookCount())
		for _, w := range idx.Works {
			for _, b := range w.Books {
				rows = append(rows, models.NewResultRow(b.Name, w.Name, c.book(b), b.TotalTokens))
			}
		}
		return rows
	default:
		return []*models.ResultRow{
			models.NewResultRow(models.ScopeAll, "", c.corpus(idx), idx.TotalTokens),
		}
	}
}
