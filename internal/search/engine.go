// Package search answers word and phrase frequency queries against the
// loaded index.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/internal/ranking"
	"go.uber.org/zap"
)

// Engine runs frequency queries. It holds no per-query state and is safe
// for concurrent use.
type Engine struct {
	store  *index.Store
	logger *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over the index held by store.
func NewEngine(store *index.Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query counts q.Term in every scope at q.Granularity and returns the rows
// ranked. Invalid queries fail with *models.InvalidQueryError before the
// index is touched; an index that cannot be loaded fails with
// *index.IndexLoadError.
func (e *Engine) Query(ctx context.Context, q *models.FrequencyQuery) (*models.FrequencyResponse, error) {
	start := time.Now()
	tokens, err := ProcessQuery(q)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := e.store.Get()
	if err != nil {
		return nil, err
	}

	rows := ranking.Rank(Frequencies(idx, tokens, q.Granularity))
	total := 0
	for _, r := range rows {
		total += r.RawCount
	}
	resp := &models.FrequencyResponse{
		Term:        q.Term,
		Normalized:  strings.Join(tokens, " "),
		Tokens:      len(tokens),
		Granularity: q.Granularity,
		Rows:        rows,
		TotalCount:  total,
		QueryTime:   time.Since(start).Milliseconds(),
	}
	e.logger.Debug("frequency query",
		zap.String("term", resp.Normalized),
		zap.String("granularity", string(q.Granularity)),
		zap.Int("rows", len(rows)),
		zap.Int("total_count", total))
	return resp, nil
}
