// Package search ranks stored image feature vectors by cosine similarity to a
// query image.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/erazemk/locography/internal/imaging"
	"github.com/erazemk/locography/internal/model"
)

// ErrInvalidInput is returned for an undecodable query image or out of range
// parameters.
var ErrInvalidInput = errors.New("invalid search input")

// snapEpsilon is how close to 1 a score must be to count as an exact match.
const snapEpsilon = 1e-9

// Source provides the stored feature vectors to compare against.
type Source interface {
	ImageVectors(ctx context.Context) ([]model.ImageVector, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]model.ImageVector, error)

// ImageVectors implements Source.
func (f SourceFunc) ImageVectors(ctx context.Context) ([]model.ImageVector, error) {
	return f(ctx)
}

// Match is one ranked result: the owning item's ID, the best-scoring image of
// that item and its similarity.
type Match struct {
	ItemID     int64
	ImageID    int64
	Similarity float64
}

// ByImage extracts features from query and returns at most topK items whose
// best image scores at least threshold, best first.
func ByImage(ctx context.Context, src Source, query []byte, topK int, threshold float64) ([]Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidInput, topK)
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be within [0, 1], got %v", ErrInvalidInput, threshold)
	}

	features, err := imaging.Features(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	vectors, err := src.ImageVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading image vectors: %w", err)
	}

	return Rank(features, vectors, topK, threshold), nil
}

// Rank scores every vector against query and selects the results: scores below
// threshold are dropped, the rest sorted by descending score (ties by item ID,
// then image ID), reduced to the best image per item and truncated to topK.
func Rank(query []float32, vectors []model.ImageVector, topK int, threshold float64) []Match {
	candidates := make([]Match, 0, len(vectors))
	for _, v := range vectors {
		if len(v.Features) != len(query) {
			slog.Warn("skipping image vector with mismatched dimensions",
				"image_id", v.ImageID, "got", len(v.Features), "want", len(query))
			continue
		}
		score := Cosine(query, v.Features)
		if score < threshold {
			continue
		}
		candidates = append(candidates, Match{ItemID: v.ItemID, ImageID: v.ImageID, Similarity: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		return a.ImageID < b.ImageID
	})

	results := make([]Match, 0, min(topK, len(candidates)))
	seen := make(map[int64]bool)
	for _, c := range candidates {
		if len(results) == topK {
			break
		}
		if seen[c.ItemID] {
			continue
		}
		seen[c.ItemID] = true
		results = append(results, c)
	}
	return results
}

// Cosine returns the cosine similarity of a and b clamped into [0, 1].
// It is 0 when the lengths differ or either vector has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	score := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1-snapEpsilon:
		return 1
	}
	return score
}
