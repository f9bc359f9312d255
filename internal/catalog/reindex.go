package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/locography/internal/imaging"
	"github.com/erazemk/locography/internal/store"
)

// ReindexResult summarizes a reindex run.
type ReindexResult struct {
	Total   int
	Updated int
	Skipped int
}

// Reindex recomputes the feature vector of every stored image with at most
// workers concurrent extractions, then records the current descriptor.
// Images whose file is missing or undecodable are logged and skipped, and
// lose their old vector so it is never compared against the new descriptor.
func (s *Service) Reindex(ctx context.Context, workers int) (*ReindexResult, error) {
	images, err := store.ListAllImages(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	var updated, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, img := range images {
		g.Go(func() error {
			data, err := s.Storage.Get(gctx, img.FilePath)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("skipping image during reindex", "image_id", img.ID, "key", img.FilePath, "error", err)
				skipped.Add(1)
				return store.SetImageFeatures(gctx, s.DB, img.ID, nil)
			}

			features, err := imaging.Features(data)
			if err != nil {
				slog.Warn("skipping image during reindex", "image_id", img.ID, "key", img.FilePath, "error", err)
				skipped.Add(1)
				return store.SetImageFeatures(gctx, s.DB, img.ID, nil)
			}

			if err := store.SetImageFeatures(gctx, s.DB, img.ID, features); err != nil {
				return err
			}
			updated.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := store.SetSetting(ctx, s.DB, store.SettingFeatureDescriptor, imaging.Descriptor); err != nil {
		return nil, err
	}

	return &ReindexResult{
		Total:   len(images),
		Updated: int(updated.Load()),
		Skipped: int(skipped.Load()),
	}, nil
}
