// Package storage defines the persistence interface for verses and build history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kazoeru/internal/models"
)

// ErrNoBuilds is returned by LatestBuild before any build has been recorded.
var ErrNoBuilds = errors.New("no builds recorded")

// Storage defines verse and build-record persistence operations.
type Storage interface {
	// Verse operations
	ResetVerses(ctx context.Context) error
	BatchCreateVerses(ctx context.Context, verses []*models.Verse) error
	GetVerse(ctx context.Context, id string) (*models.Verse, error)
	GetVerses(ctx context.Context, ids []string) ([]*models.Verse, error)
	CountVerses(ctx context.Context) (int64, error)

	// Build history
	CreateBuild(ctx context.Context, b *models.BuildRecord) error
	LatestBuild(ctx context.Context) (*models.BuildRecord, error)
	ListBuilds(ctx context.Context, limit int) ([]*models.BuildRecord, error)

	Close() error
}
