// Package aggregate tokenizes a loaded corpus and rolls the counts up into
// an index.Index.
package aggregate

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/kazoeru/internal/corpus"
	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/textnorm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type builder struct {
	workers int
	logger  *zap.Logger
	buildID string
	now     func() time.Time
}

// Option configures Build.
type Option func(*builder)

// WithWorkers bounds how many books are tokenized at once. Values below 1
// mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(b *builder) { b.workers = n }
}

// WithLogger sets a logger for per-work debug output.
func WithLogger(l *zap.Logger) Option {
	return func(b *builder) { b.logger = l }
}

// WithBuildID stamps the index with id instead of a fresh UUID.
func WithBuildID(id string) Option {
	return func(b *builder) { b.buildID = id }
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *builder) { b.now = now }
}

// Build tokenizes every verse of c and returns the validated Index. Books
// are tokenized concurrently; the result does not depend on scheduling.
func Build(ctx context.Context, c *corpus.Corpus, opts ...Option) (*index.Index, error) {
	b := &builder{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = runtime.NumCPU()
	}
	if b.buildID == "" {
		b.buildID = uuid.New().String()
	}

	slots := make([][]*index.Book, len(c.Works))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for wi, w := range c.Works {
		slots[wi] = make([]*index.Book, len(w.Books))
		for bi, bk := range w.Books {
			wi, bi, bk := wi, bi, bk
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[wi][bi] = tokenizeBook(bk)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	works := make([]*index.StandardWork, len(c.Works))
	for wi, w := range c.Works {
		works[wi] = index.NewStandardWork(w.Name, slots[wi])
		b.logger.Debug("work aggregated",
			zap.String("work", w.Name),
			zap.Int("books", len(w.Books)),
			zap.Int("total_tokens", works[wi].TotalTokens),
			zap.Int("vocabulary", len(works[wi].Unigrams)))
	}
	idx := index.New(works)
	idx.BuildID = b.buildID
	idx.BuiltAt = b.now().UTC().Truncate(time.Second)
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	return idx, nil
}

func tokenizeBook(bk *corpus.Book) *index.Book {
	var tokens []string
	for _, v := range bk.Verses {
		tokens = append(tokens, textnorm.Tokenize(v.Text)...)
	}
	return index.NewBook(bk.Work, bk.Name, tokens)
}
