package concordance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kazoeru/internal/canon"
	"github.com/hyperjump/kazoeru/internal/corpus"
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/internal/storage"
	"github.com/hyperjump/kazoeru/internal/textnorm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Default page sizes for Find.
const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// Concordance joins the verse index with stored verse text.
type Concordance struct {
	storage      storage.Storage
	index        *BleveIndex
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// Option configures a Concordance.
type Option func(*Concordance)

// WithLimits sets the default and maximum page size.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(c *Concordance) {
		if defaultLimit > 0 {
			c.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			c.maxLimit = maxLimit
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Concordance) { c.logger = l }
}

// New creates a Concordance over store and index.
func New(store storage.Storage, index *BleveIndex, opts ...Option) *Concordance {
	c := &Concordance{
		storage:      store,
		index:        index,
		defaultLimit: DefaultLimit,
		maxLimit:     MaxLimit,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Find returns the verses containing q.Term, in canonical order. Work and
// book filters accept the same aliases as the corpus loader.
func (c *Concordance) Find(ctx context.Context, q *models.VerseQuery) (*models.VerseResponse, error) {
	start := time.Now()
	if err := q.Validate(c.defaultLimit, c.maxLimit); err != nil {
		return nil, err
	}
	tokens := textnorm.Tokenize(q.Term)
	if len(tokens) == 0 {
		return nil, &models.InvalidQueryError{Field: "term", Reason: "term contains no words"}
	}
	work, book, err := resolveScope(q.Work, q.Book)
	if err != nil {
		return nil, err
	}

	ids, total, err := c.index.Search(ctx, tokens, work, book, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	verses, err := c.storage.GetVerses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load verses: %w", err)
	}
	hits := make([]*models.VerseHit, len(verses))
	for i, v := range verses {
		hits[i] = &models.VerseHit{Reference: v.Reference(), Verse: v}
	}
	resp := &models.VerseResponse{
		Term:       q.Term,
		Normalized: strings.Join(tokens, " "),
		Hits:       hits,
		Total:      total,
		QueryTime:  time.Since(start).Milliseconds(),
	}
	c.logger.Debug("verse query",
		zap.String("term", resp.Normalized),
		zap.String("work", work),
		zap.String("book", book),
		zap.Uint64("total", total))
	return resp, nil
}

func resolveScope(work, book string) (string, string, error) {
	work, book = strings.TrimSpace(work), strings.TrimSpace(book)
	switch {
	case work == "" && book == "":
		return "", "", nil
	case book == "":
		wi, ok := canon.LookupWork(work)
		if !ok {
			return "", "", &models.InvalidQueryError{Field: "work", Reason: fmt.Sprintf("unknown standard work %q", work)}
		}
		return canon.Works[wi].Name, "", nil
	case work == "":
		pos, ok := canon.LookupBook(book)
		if !ok {
			return "", "", &models.InvalidQueryError{Field: "book", Reason: fmt.Sprintf("unknown book %q", book)}
		}
		_, name := pos.Name()
		return "", name, nil
	default:
		pos, ok := canon.Lookup(work, book)
		if !ok {
			return "", "", &models.InvalidQueryError{Field: "book", Reason: fmt.Sprintf("unknown book %q in %q", book, work)}
		}
		w, b := pos.Name()
		return w, b, nil
	}
}

// Build replaces the stored verses and the verse index with the verses of
// c. SQLite and Bleve are written concurrently.
func Build(ctx context.Context, c *corpus.Corpus, store storage.Storage, index *BleveIndex) error {
	var verses []*models.Verse
	err := c.Verses(func(v *models.Verse) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		verses = append(verses, v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("collect verses: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := store.ResetVerses(gctx); err != nil {
			return fmt.Errorf("reset verses: %w", err)
		}
		for start := 0; start < len(verses); start += batchSize {
			end := min(start+batchSize, len(verses))
			if err := store.BatchCreateVerses(gctx, verses[start:end]); err != nil {
				return fmt.Errorf("store verses: %w", err)
			}
		}
		return nil
	})
	g.Go(func() error {
		return index.IndexVerses(gctx, verses)
	})
	return g.Wait()
}
