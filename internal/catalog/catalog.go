// Package catalog ties together the store, photo storage, feature extraction
// and the optional LLM into the operations that touch more than one of them.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/imaging"
	"github.com/erazemk/locography/internal/llm"
	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/search"
	"github.com/erazemk/locography/internal/storage"
	"github.com/erazemk/locography/internal/store"
)

var (
	// ErrItemNotFound is returned when the target item doesn't exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrImageNotFound is returned when the image doesn't exist or belongs to another item.
	ErrImageNotFound = errors.New("image not found")
	// ErrInvalidImage is returned for uploads that aren't a supported, decodable image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrDuplicateImage is returned when the item already has an identical photo.
	ErrDuplicateImage = errors.New("item already has this image")
)

// Analyzer describes photos. *llm.Client implements it.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, jpeg []byte, prompt string) (*llm.Analysis, error)
}

// Service runs catalog operations.
type Service struct {
	DB      *sqlx.DB
	Storage storage.Storage
	LLM     Analyzer

	// now is replaced in tests.
	now func() time.Time
}

// New returns a Service. analyzer may be nil.
func New(db *sqlx.DB, st storage.Storage, analyzer Analyzer) *Service {
	return &Service{DB: db, Storage: st, LLM: analyzer, now: time.Now}
}

// AttachImage processes an uploaded photo and attaches it to an item.
func (s *Service) AttachImage(ctx context.Context, itemID int64, data []byte, filename string, primary bool) (*model.ItemImage, error) {
	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	processed, err := imaging.Process(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) || errors.Is(err, imaging.ErrUndecodable) ||
			errors.Is(err, imaging.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return nil, fmt.Errorf("processing image: %w", err)
	}

	dup, err := store.FindImageByChecksum(ctx, s.DB, itemID, processed.Checksum)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, fmt.Errorf("%w (image %d)", ErrDuplicateImage, dup.ID)
	}

	key := storage.ImageKey(itemID, s.clock())
	if err := s.Storage.Put(ctx, key, processed.Data, processed.MIME); err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	features, err := imaging.Features(processed.Data)
	if err != nil {
		slog.Warn("computing image features", "item_id", itemID, "key", key, "error", err)
		features = nil
	}

	analysis := s.analyze(ctx, itemID, processed.Data)

	img := &model.ItemImage{
		ItemID:    itemID,
		FilePath:  key,
		Filename:  filename,
		MIME:      processed.MIME,
		Size:      int64(len(processed.Data)),
		Width:     processed.Width,
		Height:    processed.Height,
		Checksum:  processed.Checksum,
		Features:  features,
		IsPrimary: primary,
	}
	if analysis != nil {
		img.AICaption = analysis.Description
		img.AITags = analysis.Tags
	}

	created, err := store.CreateImage(ctx, s.DB, img)
	if err != nil {
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			slog.Warn("removing orphaned image file", "key", key, "error", delErr)
		}
		return nil, err
	}

	if analysis != nil && (created.IsPrimary || item.AIDescription == "") {
		if err := store.SetItemAI(ctx, s.DB, itemID, analysis.Description, analysis.Tags); err != nil {
			slog.Warn("storing ai description", "item_id", itemID, "error", err)
		}
	}

	return created, nil
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// analyze runs the optional LLM analysis. Failures are logged and yield nil.
func (s *Service) analyze(ctx context.Context, itemID int64, jpeg []byte) *llm.Analysis {
	if s.LLM == nil {
		return nil
	}
	analysis, err := s.LLM.AnalyzeImage(ctx, jpeg, "")
	if errors.Is(err, llm.ErrDisabled) {
		return nil
	}
	if err != nil {
		slog.Warn("analyzing image", "item_id", itemID, "error", err)
		return nil
	}
	return analysis
}

// DeleteItem deletes an item, its images and their stored files.
func (s *Service) DeleteItem(ctx context.Context, itemID int64) error {
	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrItemNotFound
	}

	paths, err := store.DeleteItem(ctx, s.DB, itemID)
	if err != nil {
		return err
	}
	for _, p := range paths {
		s.removeFile(ctx, p)
	}
	return nil
}

// DeleteImage deletes one of an item's images and its stored file.
func (s *Service) DeleteImage(ctx context.Context, itemID, imageID int64) error {
	img, err := store.DeleteImage(ctx, s.DB, itemID, imageID)
	if err != nil {
		return err
	}
	if img == nil {
		return ErrImageNotFound
	}
	s.removeFile(ctx, img.FilePath)
	return nil
}

func (s *Service) removeFile(ctx context.Context, key string) {
	err := s.Storage.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotExist) {
		slog.Warn("deleting image file", "key", key, "error", err)
	}
}

// ImageFile returns an image row together with its stored bytes.
func (s *Service) ImageFile(ctx context.Context, imageID int64) (*model.ItemImage, []byte, error) {
	img, err := store.GetImage(ctx, s.DB, imageID)
	if err != nil {
		return nil, nil, err
	}
	if img == nil {
		return nil, nil, ErrImageNotFound
	}

	data, err := s.Storage.Get(ctx, img.FilePath)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: file missing", ErrImageNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return img, data, nil
}

// SearchResult is an item matched by image similarity.
type SearchResult struct {
	Item           model.Item `json:"item"`
	Similarity     float64    `json:"similarity"`
	MatchedImageID int64      `json:"matched_image_id"`
}

// SearchByImage finds the items whose photos look most like query.
func (s *Service) SearchByImage(ctx context.Context, query []byte, topK int, threshold float64) ([]SearchResult, error) {
	src := search.SourceFunc(func(ctx context.Context) ([]model.ImageVector, error) {
		return store.ListImageVectors(ctx, s.DB)
	})

	matches, err := search.ByImage(ctx, src, query, topK, threshold)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		item, err := store.GetItem(ctx, s.DB, m.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			// Deleted between loading vectors and now.
			continue
		}
		results = append(results, SearchResult{Item: *item, Similarity: m.Similarity, MatchedImageID: m.ImageID})
	}
	return results, nil
}

// CheckDescriptor records the feature descriptor on first start and warns when
// stored vectors were produced by a different extractor.
func (s *Service) CheckDescriptor(ctx context.Context) error {
	stored, err := store.EnsureDescriptor(ctx, s.DB, imaging.Descriptor)
	if err != nil {
		return err
	}
	if stored != imaging.Descriptor {
		slog.Warn("stored image features use a different descriptor, run `locography reindex`",
			"stored", stored, "current", imaging.Descriptor)
	}
	return nil
}
