package indexer

import (
	"context"
	"errors"

	"github.com/hyperjump/kazoeru/internal/config"
	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/models"
	"github.com/hyperjump/kazoeru/internal/storage"
)

// Status reports on the index held by store, the latest recorded build and
// the disk used by every artifact. It fails with *index.IndexLoadError when
// no index can be loaded.
func Status(ctx context.Context, cfg *config.Config, store *index.Store, st storage.Storage) (*models.StatusReport, error) {
	idx, err := store.Get()
	if err != nil {
		return nil, err
	}
	report := &models.StatusReport{
		IndexPath:   cfg.Storage.IndexPath,
		BuildID:     idx.BuildID,
		BuiltAt:     idx.BuiltAt,
		Works:       idx.Summary(),
		Books:       idx.BookCount(),
		TotalTokens: idx.TotalTokens,
		Vocabulary:  len(idx.Unigrams),
	}
	if st != nil {
		if report.Verses, err = st.CountVerses(ctx); err != nil {
			return nil, err
		}
		latest, err := st.LatestBuild(ctx)
		switch {
		case errors.Is(err, storage.ErrNoBuilds):
		case err != nil:
			return nil, err
		default:
			report.LatestBuild = latest
		}
	}
	report.Artifacts, report.DiskBytes, err = storage.Footprint(
		storage.Artifact{Name: "index", Path: cfg.Storage.IndexPath},
		storage.Artifact{Name: "digest", Path: cfg.Storage.IndexPath + index.DigestSuffix},
		storage.Artifact{Name: "database", Path: cfg.Storage.DatabasePath},
		storage.Artifact{Name: "concordance", Path: cfg.Storage.BleveIndexPath},
	)
	if err != nil {
		return nil, err
	}
	return report, nil
}
