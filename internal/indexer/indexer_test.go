package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kazoeru/internal/config"
	"github.com/hyperjump/kazoeru/internal/corpus"
	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/storage"
)

const export = `[
  {"volume_title": "Old Testament", "book_title": "Genesis", "chapter_number": 1, "verse_number": 1, "scripture_text": "In the beginning God created the heaven and the earth."},
  {"volume_title": "Book of Mormon", "book_title": "Alma", "chapter_number": 32, "verse_number": 21, "scripture_text": "Faith is not a perfect knowledge."},
  {"volume_title": "Apocrypha", "book_title": "Tobit", "chapter_number": 1, "verse_number": 1, "scripture_text": "The book of the words of Tobit."}
]`

func testConfig(t *testing.T, concordance bool) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.SourcePath = filepath.Join(dir, "lds-scriptures.json")
	cfg.Storage.IndexPath = filepath.Join(dir, "index", "frequency.json")
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "kazoeru.db")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "indices", "bleve")
	cfg.Build.Workers = 2
	cfg.Build.Concordance = &concordance
	if err := os.WriteFile(cfg.Storage.SourcePath, []byte(export), 0644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func openStorage(t *testing.T, cfg *config.Config) storage.Storage {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		t.Fatal(err)
	}
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, true)
	st := openStorage(t, cfg)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ix := NewIndexer(cfg, st, WithClock(func() time.Time { return fixed }))

	res, err := ix.Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Stats.Verses != 2 || res.Stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 verses and 1 skipped", res.Stats)
	}
	if res.Record.Tokens != 16 {
		t.Errorf("tokens = %d, want 16", res.Record.Tokens)
	}
	if len(res.Record.Digest) != 64 {
		t.Errorf("digest = %q, want 64 hex chars", res.Record.Digest)
	}
	if !res.Record.StartedAt.Equal(fixed) {
		t.Errorf("StartedAt = %v", res.Record.StartedAt)
	}

	loaded, err := index.Load(cfg.Storage.IndexPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.BuildID != res.Record.ID {
		t.Errorf("index build id = %q, record id = %q", loaded.BuildID, res.Record.ID)
	}
	if got := loaded.Work("Old Testament").Unigrams["the"]; got != 3 {
		t.Errorf("OT the = %d, want 3", got)
	}

	if n, _ := st.CountVerses(ctx); n != 2 {
		t.Errorf("CountVerses = %d, want 2", n)
	}
	latest, err := st.LatestBuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != res.Record.ID || latest.Digest != res.Record.Digest {
		t.Errorf("latest build = %+v", latest)
	}
	if _, err := os.Stat(cfg.Storage.BleveIndexPath); err != nil {
		t.Errorf("concordance index missing: %v", err)
	}
}

func TestBuild_WithoutConcordance(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, false)
	cfg.Build.Compress = true
	st := openStorage(t, cfg)

	if _, err := NewIndexer(cfg, st).Build(ctx); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := os.Stat(cfg.Storage.BleveIndexPath); !os.IsNotExist(err) {
		t.Errorf("bleve index should not be written, stat err = %v", err)
	}
	if n, _ := st.CountVerses(ctx); n != 0 {
		t.Errorf("CountVerses = %d, want 0", n)
	}
	if _, err := index.Load(cfg.Storage.IndexPath); err != nil {
		t.Errorf("compressed index did not load: %v", err)
	}
}

func TestBuild_MissingSource(t *testing.T) {
	cfg := testConfig(t, true)
	cfg.Storage.SourcePath = filepath.Join(t.TempDir(), "absent.json")
	st := openStorage(t, cfg)

	_, err := NewIndexer(cfg, st).Build(context.Background())
	var missing *corpus.SourceMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *corpus.SourceMissingError", err)
	}
	if _, statErr := os.Stat(cfg.Storage.IndexPath); !os.IsNotExist(statErr) {
		t.Error("no index should be written when the source is missing")
	}
	if _, err := st.LatestBuild(context.Background()); !errors.Is(err, storage.ErrNoBuilds) {
		t.Errorf("LatestBuild err = %v, want ErrNoBuilds", err)
	}
}

func TestBuild_Canceled(t *testing.T) {
	cfg := testConfig(t, true)
	st := openStorage(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewIndexer(cfg, st).Build(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBuild_ConcordanceFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, true)
	st := openStorage(t, cfg)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Storage.BleveIndexPath = filepath.Join(blocker, "bleve")

	if _, err := NewIndexer(cfg, st).Build(ctx); err == nil {
		t.Fatal("Build should fail when the concordance cannot be created")
	}
	loaded, err := index.Load(cfg.Storage.IndexPath)
	if err != nil {
		t.Fatalf("index should be in place: %v", err)
	}
	latest, err := st.LatestBuild(ctx)
	if err != nil {
		t.Fatalf("LatestBuild: %v", err)
	}
	if latest.ID != loaded.BuildID {
		t.Errorf("latest build %q does not describe the index on disk (%q)", latest.ID, loaded.BuildID)
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, true)
	st := openStorage(t, cfg)
	res, err := NewIndexer(cfg, st).Build(ctx)
	if err != nil {
		t.Fatal(err)
	}

	report, err := Status(ctx, cfg, index.NewStore(cfg.Storage.IndexPath), st)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.BuildID != res.Record.ID {
		t.Errorf("BuildID = %q, want %q", report.BuildID, res.Record.ID)
	}
	if len(report.Works) != 2 || report.Books != 2 {
		t.Errorf("works = %d books = %d, want 2 and 2", len(report.Works), report.Books)
	}
	if report.TotalTokens != 16 || report.Verses != 2 {
		t.Errorf("tokens = %d verses = %d", report.TotalTokens, report.Verses)
	}
	if report.LatestBuild == nil || report.LatestBuild.ID != res.Record.ID {
		t.Errorf("LatestBuild = %+v", report.LatestBuild)
	}
	if len(report.Artifacts) != 4 {
		t.Fatalf("artifacts = %d, want 4", len(report.Artifacts))
	}
	for _, a := range report.Artifacts {
		if !a.Exists {
			t.Errorf("artifact %s (%s) should exist", a.Name, a.Path)
		}
	}
	if report.DiskBytes <= 0 {
		t.Errorf("DiskBytes = %d", report.DiskBytes)
	}
}

func TestStatus_NoIndex(t *testing.T) {
	cfg := testConfig(t, true)
	_, err := Status(context.Background(), cfg, index.NewStore(cfg.Storage.IndexPath), nil)
	var loadErr *index.IndexLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want *index.IndexLoadError", err)
	}
}
