package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/hyperjump/kazoeru/internal/canon"
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/ulikunitz/xz"
	"go.uber.org/zap"
)

// Option configures Load and Decode.
type Option func(*loader)

// WithLogger logs every skipped record at warn level.
func WithLogger(l *zap.Logger) Option {
	return func(ld *loader) { ld.logger = l }
}

type loader struct {
	logger *zap.Logger
	books  map[canon.Position]*Book
	stats  Stats
}

// Load reads the scripture export at path. A ".xz" suffix selects xz
// decompression. A missing file yields *SourceMissingError; individual
// records that cannot be classified are skipped and counted in Stats.
func Load(ctx context.Context, path string, opts ...Option) (*Corpus, *Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &SourceMissingError{Path: path, Err: err}
		}
		return nil, nil, fmt.Errorf("open scripture source: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, 1<<16)
	if strings.HasSuffix(strings.ToLower(path), ".xz") {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("open xz stream %s: %w", path, err)
		}
		r = xr
	}
	return Decode(ctx, r, opts...)
}

// Decode streams a JSON array of verse records from r.
func Decode(ctx context.Context, r io.Reader, opts ...Option) (*Corpus, *Stats, error) {
	ld := &loader{
		logger: zap.NewNop(),
		books:  make(map[canon.Position]*Book),
	}
	for _, opt := range opts {
		opt(ld)
	}

	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("read scripture source: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, nil, fmt.Errorf("scripture source must be a JSON array, got %v", tok)
	}
	for dec.More() {
		if ld.stats.Records%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("decode record %d: %w", ld.stats.Records, err)
		}
		n := ld.stats.Records
		ld.stats.Records++
		if err := ld.add(n, raw); err != nil {
			var malformed *SourceMalformedError
			if !errors.As(err, &malformed) {
				return nil, nil, err
			}
			ld.stats.skip(malformed.Reason)
			ld.logger.Warn("skipping scripture record", zap.Error(malformed))
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("read end of scripture source: %w", err)
	}

	c := ld.corpus()
	ld.stats.Verses = c.VerseCount()
	return c, &ld.stats, nil
}

func (ld *loader) add(n int, raw json.RawMessage) error {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return &SourceMalformedError{Record: n, Reason: ReasonUndecodable, Err: err}
	}
	if rec.VolumeTitle == "" || rec.BookTitle == "" || strings.TrimSpace(rec.ScriptureText) == "" {
		return &SourceMalformedError{Record: n, Work: rec.VolumeTitle, Book: rec.BookTitle, Reason: ReasonMissingField}
	}
	if _, ok := canon.LookupWork(rec.VolumeTitle); !ok {
		return &SourceMalformedError{Record: n, Work: rec.VolumeTitle, Book: rec.BookTitle, Reason: ReasonUnknownWork}
	}
	pos, ok := canon.Lookup(rec.VolumeTitle, rec.BookTitle)
	if !ok {
		return &SourceMalformedError{Record: n, Work: rec.VolumeTitle, Book: rec.BookTitle, Reason: ReasonUnknownBook}
	}

	b, ok := ld.books[pos]
	if !ok {
		work, book := pos.Name()
		b = &Book{Name: book, Work: work}
		ld.books[pos] = b
	}
	b.Verses = append(b.Verses, &models.Verse{
		ID:      models.VerseReference(b.Name, rec.ChapterNumber, rec.VerseNumber),
		Work:    b.Work,
		Book:    b.Name,
		Chapter: rec.ChapterNumber,
		Number:  rec.VerseNumber,
		Text:    rec.ScriptureText,
	})
	return nil
}

// corpus lays the collected books out in canonical order and numbers verses.
func (ld *loader) corpus() *Corpus {
	c := &Corpus{}
	position := 0
	for wi, w := range canon.Works {
		var work *Work
		for bi := range w.Books {
			b, ok := ld.books[canon.Position{Work: wi, Book: bi}]
			if !ok {
				continue
			}
			if work == nil {
				work = &Work{Name: w.Name}
				c.Works = append(c.Works, work)
			}
			for _, v := range b.Verses {
				v.Position = position
				position++
			}
			work.Books = append(work.Books, b)
		}
	}
	return c
}
