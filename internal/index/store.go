package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store hands out the serving Index. The first Get loads it from disk;
// concurrent first calls share one load. Reload swaps in a freshly loaded
// Index without disturbing queries that hold the previous one.
type Store struct {
	path    string
	logger  *zap.Logger
	once    sync.Once
	loadErr error
	current atomic.Pointer[Index]
	reloads singleflight.Group
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger logs loads and reloads.
func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a Store that lazily loads the index at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStaticStore wraps an Index that is already in memory.
func NewStaticStore(idx *Index) *Store {
	s := &Store{logger: zap.NewNop()}
	s.current.Store(idx)
	s.once.Do(func() {})
	return s
}

// Path returns the artifact path, empty for a static store.
func (s *Store) Path() string { return s.path }

// Get returns the current Index, loading it on first use.
func (s *Store) Get() (*Index, error) {
	s.once.Do(func() {
		if s.current.Load() != nil {
			return
		}
		idx, err := Load(s.path)
		if err != nil {
			s.loadErr = err
			return
		}
		s.current.Store(idx)
		s.logger.Info("index loaded",
			zap.String("path", s.path),
			zap.String("build_id", idx.BuildID),
			zap.Int("books", idx.BookCount()),
			zap.Int("total_tokens", idx.TotalTokens))
	})
	if idx := s.current.Load(); idx != nil {
		return idx, nil
	}
	return nil, s.loadErr
}

// Reload loads the artifact again and swaps it in. On failure the current
// Index is kept. Reloads requested while one is running share its result.
func (s *Store) Reload() error {
	_, err, _ := s.reloads.Do("reload", func() (interface{}, error) {
		idx, err := Load(s.path)
		if err != nil {
			s.logger.Warn("index reload failed", zap.String("path", s.path), zap.Error(err))
			return nil, err
		}
		s.current.Store(idx)
		s.logger.Info("index reloaded",
			zap.String("path", s.path),
			zap.String("build_id", idx.BuildID),
			zap.Int("total_tokens", idx.TotalTokens))
		return idx, nil
	})
	return err
}
