// Package concordance finds the verses that contain a word or exact phrase.
package concordance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/internal/textnorm"
)

const (
	verseAnalyzer = "verse_tokens"
	batchSize     = 1000
)

// verseDoc is what Bleve stores per verse. Text holds the normalized tokens
// joined by spaces, so the whitespace tokenizer reproduces exactly the
// tokens the frequency index counted.
type verseDoc struct {
	Text     string  `json:"text"`
	Work     string  `json:"work"`
	Book     string  `json:"book"`
	Position float64 `json:"position"`
}

// BleveIndex is the verse search index.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(verseAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": whitespace.Name,
	}); err != nil {
		return nil, fmt.Errorf("register verse analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// No lowercasing, stop words or stemming: text is already normalized.
	textFieldMapping.Analyzer = verseAnalyzer
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("work", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("book", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("position", bleve.NewNumericFieldMapping())
	im.AddDocumentMapping("verse", docMapping)
	im.DefaultType = "verse"
	im.DefaultMapping = docMapping
	return im, nil
}

// NewBleveIndex opens the verse index at path, creating it if missing.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}
	return create(path)
}

// RecreateBleveIndex removes any index at path and creates an empty one.
func RecreateBleveIndex(path string) (*BleveIndex, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("failed to remove Bleve index: %w", err)
	}
	return create(path)
}

func create(path string) (*BleveIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create Bleve index directory: %w", err)
	}
	im, err := newMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexVerses adds verses in batches.
func (b *BleveIndex) IndexVerses(ctx context.Context, verses []*models.Verse) error {
	batch := b.index.NewBatch()
	for _, v := range verses {
		if err := batch.Index(v.ID, &verseDoc{
			Text:     strings.Join(textnorm.Tokenize(v.Text), " "),
			Work:     v.Work,
			Book:     v.Book,
			Position: float64(v.Position),
		}); err != nil {
			return fmt.Errorf("index verse %s: %w", v.ID, err)
		}
		if batch.Size() >= batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.index.Batch(batch); err != nil {
				return fmt.Errorf("Bleve batch failed: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("Bleve batch failed: %w", err)
		}
	}
	return nil
}

// Search returns the IDs of verses containing tokens as a contiguous run,
// in canonical order, plus the total number of matching verses. work and
// book, when set, must be canonical names.
func (b *BleveIndex) Search(ctx context.Context, tokens []string, work, book string, limit, offset int) ([]string, uint64, error) {
	if len(tokens) == 0 {
		return []string{}, 0, nil
	}
	var text blevequery.Query
	if len(tokens) == 1 {
		tq := bleve.NewTermQuery(tokens[0])
		tq.SetField("text")
		text = tq
	} else {
		text = bleve.NewPhraseQuery(tokens, "text")
	}
	clauses := []blevequery.Query{text}
	if work != "" {
		wq := bleve.NewTermQuery(work)
		wq.SetField("work")
		clauses = append(clauses, wq)
	}
	if book != "" {
		bq := bleve.NewTermQuery(book)
		bq.SetField("book")
		clauses = append(clauses, bq)
	}
	var q blevequery.Query = text
	if len(clauses) > 1 {
		q = bleve.NewConjunctionQuery(clauses...)
	}

	req := bleve.NewSearchRequestOptions(q, limit, offset, false)
	req.SortBy([]string{"position"})
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("Bleve search failed: %w", err)
	}
	ids := make([]string, len(results.Hits))
	for i, hit := range results.Hits {
		ids[i] = hit.ID
	}
	return ids, results.Total, nil
}

// DocCount returns the number of indexed verses.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
