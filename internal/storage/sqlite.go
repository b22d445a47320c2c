// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kazoeru/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS verses (
		id TEXT PRIMARY KEY,
		work TEXT NOT NULL,
		book TEXT NOT NULL,
		chapter INTEGER NOT NULL,
		verse INTEGER NOT NULL,
		text TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verses_position ON verses(position);
	CREATE INDEX IF NOT EXISTS idx_verses_work_book ON verses(work, book);

	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		verses INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		tokens INTEGER NOT NULL,
		index_path TEXT NOT NULL,
		digest TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_builds_finished_at ON builds(finished_at);
	`
	_, err := db.Exec(schema)
	return err
}

// ResetVerses deletes every stored verse ahead of a rebuild.
func (s *SQLiteStorage) ResetVerses(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM verses`)
	return err
}

// BatchCreateVerses inserts multiple verses in a transaction. A verse with an
// existing ID replaces the stored one.
func (s *SQLiteStorage) BatchCreateVerses(ctx context.Context, verses []*models.Verse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO verses (id, work, book, chapter, verse, text, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range verses {
		if _, err := stmt.ExecContext(ctx, v.ID, v.Work, v.Book, v.Chapter, v.Number, v.Text, v.Position); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetVerse returns a verse by ID.
func (s *SQLiteStorage) GetVerse(ctx context.Context, id string) (*models.Verse, error) {
	var v models.Verse
	err := s.db.QueryRowContext(ctx,
		`SELECT id, work, book, chapter, verse, text, position
		 FROM verses WHERE id = ?`, id,
	).Scan(&v.ID, &v.Work, &v.Book, &v.Chapter, &v.Number, &v.Text, &v.Position)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("verse not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVerses returns the verses with the given IDs in the order requested.
// Unknown IDs are skipped.
func (s *SQLiteStorage) GetVerses(ctx context.Context, ids []string) ([]*models.Verse, error) {
	if len(ids) == 0 {
		return []*models.Verse{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, work, book, chapter, verse, text, position
		 FROM verses WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Verse, len(ids))
	for rows.Next() {
		var v models.Verse
		if err := rows.Scan(&v.ID, &v.Work, &v.Book, &v.Chapter, &v.Number, &v.Text, &v.Position); err != nil {
			return nil, err
		}
		byID[v.ID] = &v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Verse, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// CountVerses returns the total number of verses.
func (s *SQLiteStorage) CountVerses(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verses`).Scan(&count)
	return count, err
}

// CreateBuild records a finished build.
func (s *SQLiteStorage) CreateBuild(ctx context.Context, b *models.BuildRecord) error {
	if b.FinishedAt.IsZero() {
		b.FinishedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, started_at, finished_at, verses, skipped, tokens, index_path, digest)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.StartedAt, b.FinishedAt, b.Verses, b.Skipped, b.Tokens, b.IndexPath, b.Digest,
	)
	return err
}

// LatestBuild returns the most recently finished build, or ErrNoBuilds.
func (s *SQLiteStorage) LatestBuild(ctx context.Context) (*models.BuildRecord, error) {
	builds, err := s.ListBuilds(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, ErrNoBuilds
	}
	return builds[0], nil
}

// ListBuilds returns up to limit builds, newest first.
func (s *SQLiteStorage) ListBuilds(ctx context.Context, limit int) ([]*models.BuildRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, verses, skipped, tokens, index_path, digest
		 FROM builds ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []*models.BuildRecord
	for rows.Next() {
		var b models.BuildRecord
		var digest sql.NullString
		if err := rows.Scan(&b.ID, &b.StartedAt, &b.FinishedAt, &b.Verses, &b.Skipped, &b.Tokens, &b.IndexPath, &digest); err != nil {
			return nil, err
		}
		b.Digest = digest.String
		builds = append(builds, &b)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return builds, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
