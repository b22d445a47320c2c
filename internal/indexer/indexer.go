// Package indexer runs the offline build: load the scripture export,
// aggregate the frequency index, persist it, and fill the verse concordance.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/kazoeru/internal/aggregate"
	"github.com/hyperjump/kazoeru/internal/concordance"
	"github.com/hyperjump/kazoeru/internal/config"
	"github.com/hyperjump/kazoeru/internal/corpus"
	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/internal/storage"
	"github.com/hyperjump/kazoeru/pkg/utils"
	"go.uber.org/zap"
)

// Indexer builds every artifact described by a Config.
type Indexer struct {
	config  *config.Config
	storage storage.Storage
	logger  *zap.Logger
	now     func() time.Time
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build progress.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = utils.OrNop(l) }
}

// WithClock overrides the time source used for build timestamps.
func WithClock(now func() time.Time) IndexerOption {
	return func(idx *Indexer) { idx.now = now }
}

// NewIndexer creates an indexer that records builds in store.
func NewIndexer(cfg *config.Config, store storage.Storage, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		config:  cfg,
		storage: store,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Result is what one build produced.
type Result struct {
	Record *models.BuildRecord
	Stats  *corpus.Stats
	Index  *index.Index
}

// Build runs the whole pipeline. A missing source fails with
// *corpus.SourceMissingError before anything is written. The previous index
// artifact is replaced only once the new one is complete, and the build is
// recorded as soon as it is, so a failed concordance step never leaves an
// unrecorded index on disk.
func (ix *Indexer) Build(ctx context.Context) (*Result, error) {
	cfg := ix.config
	started := ix.now().UTC()
	buildID := uuid.New().String()
	log := ix.logger.With(zap.String("build_id", buildID))
	log.Info("build started", zap.String("source", cfg.Storage.SourcePath))

	c, stats, err := corpus.Load(ctx, cfg.Storage.SourcePath, corpus.WithLogger(log))
	if err != nil {
		return nil, err
	}
	log.Info("corpus loaded",
		zap.Int("records", stats.Records),
		zap.Int("verses", stats.Verses),
		zap.Int("skipped", stats.Skipped),
		zap.Any("skipped_by_reason", stats.SkippedByReason))

	idx, err := aggregate.Build(ctx, c,
		aggregate.WithWorkers(cfg.Build.Workers),
		aggregate.WithLogger(log),
		aggregate.WithBuildID(buildID),
		aggregate.WithClock(ix.now))
	if err != nil {
		return nil, fmt.Errorf("aggregate corpus: %w", err)
	}
	for _, ws := range idx.Summary() {
		log.Info("standard work indexed",
			zap.String("work", ws.Name),
			zap.Int("books", ws.Books),
			zap.Int("total_tokens", ws.TotalTokens),
			zap.Int("vocabulary", ws.Vocabulary))
	}

	digest, err := index.Save(idx, cfg.Storage.IndexPath, index.WithCompression(cfg.Build.Compress))
	if err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	log.Info("index written", zap.String("path", cfg.Storage.IndexPath), zap.String("blake3", digest))

	record := &models.BuildRecord{
		ID:         buildID,
		StartedAt:  started,
		FinishedAt: ix.now().UTC(),
		Verses:     stats.Verses,
		Skipped:    stats.Skipped,
		Tokens:     idx.TotalTokens,
		IndexPath:  cfg.Storage.IndexPath,
		Digest:     digest,
	}
	if err := ix.storage.CreateBuild(ctx, record); err != nil {
		return nil, fmt.Errorf("record build: %w", err)
	}

	if cfg.Build.ConcordanceOrDefault() {
		if err := ix.buildConcordance(ctx, c); err != nil {
			return nil, err
		}
		log.Info("concordance written",
			zap.String("database", cfg.Storage.DatabasePath),
			zap.String("bleve", cfg.Storage.BleveIndexPath))
	}

	log.Info("build finished",
		zap.Int("total_tokens", idx.TotalTokens),
		zap.Int("vocabulary", len(idx.Unigrams)),
		zap.Duration("elapsed", record.FinishedAt.Sub(started)))
	return &Result{Record: record, Stats: stats, Index: idx}, nil
}

func (ix *Indexer) buildConcordance(ctx context.Context, c *corpus.Corpus) error {
	bi, err := concordance.RecreateBleveIndex(ix.config.Storage.BleveIndexPath)
	if err != nil {
		return err
	}
	defer bi.Close()
	if err := concordance.Build(ctx, c, ix.storage, bi); err != nil {
		return fmt.Errorf("build concordance: %w", err)
	}
	return nil
}
