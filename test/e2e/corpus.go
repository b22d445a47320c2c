// Package e2e builds a synthetic scripture export and checks the whole
// pipeline against brute-force counts taken from it.
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/hyperjump/kazoeru/internal/canon"
	"github.com/hyperjump/kazoeru/internal/corpus"
	"github.com/hyperjump/kazoeru/internal/textnorm"
	"github.com/ulikunitz/xz"
)

// vocabulary is small so that phrases recur across verse and book edges.
var vocabulary = []string{
	"and", "it", "came", "to", "pass", "that", "the", "Lord", "Lord’s",
	"faith", "faithful", "hope", "charity", "behold", "end", "love", "one",
	"another", "thy", "neighbor", "God", "is", "Zion", "naïve",
}

var punctuation = []string{"", "", "", ",", ";", ".", ":", "?", "—"}

// Corpus is a generated export plus the tokens of every book, kept for
// brute-force checks.
type Corpus struct {
	Records []corpus.Record
	// Books maps "work/book" to the book's tokens in verse order.
	Books map[string][]string
	// Verses maps "work/book" to the tokens of each verse.
	Verses map[string][][]string
}

// BuildCorpus generates versesPerBook verses for every book in the canon.
// The same seed always yields the same corpus.
func BuildCorpus(seed int64, versesPerBook int) *Corpus {
	rng := rand.New(rand.NewSource(seed))
	c := &Corpus{Books: make(map[string][]string), Verses: make(map[string][][]string)}
	for _, w := range canon.Works {
		for _, b := range w.Books {
			key := w.Name + "/" + b
			for v := 1; v <= versesPerBook; v++ {
				text := verseText(rng)
				c.Records = append(c.Records, corpus.Record{
					VolumeTitle:   w.Name,
					BookTitle:     b,
					ChapterNumber: 1 + (v-1)/10,
					VerseNumber:   1 + (v-1)%10,
					ScriptureText: text,
				})
				tokens := textnorm.Tokenize(text)
				c.Books[key] = append(c.Books[key], tokens...)
				c.Verses[key] = append(c.Verses[key], tokens)
			}
		}
	}
	return c
}

func verseText(rng *rand.Rand) string {
	n := 4 + rng.Intn(12)
	words := make([]string, n)
	for i := range words {
		word := vocabulary[rng.Intn(len(vocabulary))]
		if rng.Intn(5) == 0 {
			word = strings.ToUpper(word[:1]) + word[1:]
		}
		words[i] = word + punctuation[rng.Intn(len(punctuation))]
	}
	return strings.Join(words, " ")
}

// WriteExport writes the records as a JSON array, xz-compressed when
// compress is set.
func (c *Corpus) WriteExport(w io.Writer, compress bool) error {
	if compress {
		xw, err := xz.NewWriter(w)
		if err != nil {
			return err
		}
		if err := json.NewEncoder(xw).Encode(c.Records); err != nil {
			return err
		}
		return xw.Close()
	}
	return json.NewEncoder(w).Encode(c.Records)
}

// Count returns the in-order occurrences of phrase in the named books,
// never matching across a book edge.
func (c *Corpus) Count(phrase []string, keys ...string) int {
	total := 0
	for _, key := range keys {
		seq := c.Books[key]
		for i := 0; i+len(phrase) <= len(seq); i++ {
			if equal(seq[i:i+len(phrase)], phrase) {
				total++
			}
		}
	}
	return total
}

// VersesContaining returns how many verses contain phrase within the verse.
func (c *Corpus) VersesContaining(phrase []string) int {
	n := 0
	for _, verses := range c.Verses {
		for _, tokens := range verses {
			for i := 0; i+len(phrase) <= len(tokens); i++ {
				if equal(tokens[i:i+len(phrase)], phrase) {
					n++
					break
				}
			}
		}
	}
	return n
}

// Keys returns the "work/book" keys of a work, or of every book when work
// is empty.
func Keys(work string) []string {
	var keys []string
	for _, w := range canon.Works {
		if work != "" && w.Name != work {
			continue
		}
		for _, b := range w.Books {
			keys = append(keys, fmt.Sprintf("%s/%s", w.Name, b))
		}
	}
	return keys
}

func equal(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
