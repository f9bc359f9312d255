package search

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/locography/internal/imaging"
	"github.com/erazemk/locography/internal/model"
)

func pngBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func staticSource(vectors ...model.ImageVector) Source {
	return SourceFunc(func(context.Context) ([]model.ImageVector, error) {
		return vectors, nil
	})
}

func randomVectors(r *rand.Rand, n, items, dim int) []model.ImageVector {
	vectors := make([]model.ImageVector, n)
	for i := range vectors {
		f := make([]float32, dim)
		for j := range f {
			f[j] = r.Float32()
		}
		vectors[i] = model.ImageVector{ImageID: int64(i + 1), ItemID: int64(r.Intn(items) + 1), Features: f}
	}
	return vectors
}

func TestCosine(t *testing.T) {
	assert.Equal(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{1, 2, 3}))
	assert.Equal(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{-1, 0}), "negative similarity clamps to 0")
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}), "zero magnitude")
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}), "length mismatch")
	assert.InDelta(t, 0.7071, Cosine([]float32{1, 0}, []float32{1, 1}), 1e-4)
}

func TestRankProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	query := randomVectors(r, 1, 1, 16)[0].Features

	for round := 0; round < 50; round++ {
		vectors := randomVectors(r, 40, 10, 16)
		topK := r.Intn(8) + 1
		threshold := r.Float64()

		results := Rank(query, vectors, topK, threshold)

		assert.LessOrEqual(t, len(results), topK)
		seen := make(map[int64]bool)
		for i, m := range results {
			assert.GreaterOrEqual(t, m.Similarity, threshold)
			if i > 0 {
				assert.LessOrEqual(t, m.Similarity, results[i-1].Similarity)
			}
			assert.False(t, seen[m.ItemID], "item %d appears twice", m.ItemID)
			seen[m.ItemID] = true
		}
	}
}

func TestRankKeepsBestImagePerItem(t *testing.T) {
	query := []float32{1, 0}
	vectors := []model.ImageVector{
		{ImageID: 1, ItemID: 10, Features: []float32{1, 1}},
		{ImageID: 2, ItemID: 10, Features: []float32{1, 0}},
		{ImageID: 3, ItemID: 20, Features: []float32{1, 0.5}},
		{ImageID: 4, ItemID: 30, Features: []float32{0, 1}},
	}

	results := Rank(query, vectors, 10, 0.5)
	require.Len(t, results, 2)
	assert.Equal(t, Match{ItemID: 10, ImageID: 2, Similarity: 1}, results[0])
	assert.Equal(t, int64(20), results[1].ItemID)
}

func TestRankDedupesBeforeTruncating(t *testing.T) {
	query := []float32{1, 0}
	vectors := []model.ImageVector{
		{ImageID: 1, ItemID: 1, Features: []float32{1, 0}},
		{ImageID: 2, ItemID: 1, Features: []float32{1, 0.01}},
		{ImageID: 3, ItemID: 2, Features: []float32{1, 0.5}},
	}

	results := Rank(query, vectors, 2, 0)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ItemID)
	assert.Equal(t, int64(2), results[1].ItemID)
}

func TestRankTieBreak(t *testing.T) {
	query := []float32{1, 1}
	same := []float32{2, 2}
	vectors := []model.ImageVector{
		{ImageID: 9, ItemID: 3, Features: same},
		{ImageID: 5, ItemID: 1, Features: same},
		{ImageID: 4, ItemID: 2, Features: same},
	}

	results := Rank(query, vectors, 3, 1)
	require.Len(t, results, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{results[0].ItemID, results[1].ItemID, results[2].ItemID})
}

func TestRankSkipsMismatchedDimensions(t *testing.T) {
	vectors := []model.ImageVector{
		{ImageID: 1, ItemID: 1, Features: []float32{1, 0, 0}},
		{ImageID: 2, ItemID: 2, Features: []float32{1, 0}},
	}

	results := Rank([]float32{1, 0}, vectors, 5, 0)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ItemID)
}

func TestByImageSelfMatch(t *testing.T) {
	red := pngBytes(t, color.RGBA{200, 30, 30, 255})
	blue := pngBytes(t, color.RGBA{20, 40, 220, 255})

	redFeatures, err := imaging.Features(red)
	require.NoError(t, err)
	blueFeatures, err := imaging.Features(blue)
	require.NoError(t, err)

	src := staticSource(
		model.ImageVector{ImageID: 1, ItemID: 1, Features: blueFeatures},
		model.ImageVector{ImageID: 2, ItemID: 2, Features: redFeatures},
	)

	results, err := ByImage(context.Background(), src, red, 5, 1.0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int64(2), results[0].ItemID)
	assert.Equal(t, 1.0, results[0].Similarity)
}

func TestByImageEmptyStore(t *testing.T) {
	results, err := ByImage(context.Background(), staticSource(), pngBytes(t, color.RGBA{1, 2, 3, 255}), 10, 0.5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestByImageInvalidInput(t *testing.T) {
	ctx := context.Background()
	img := pngBytes(t, color.RGBA{1, 2, 3, 255})

	_, err := ByImage(ctx, staticSource(), []byte("hello, not an image"), 10, 0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ByImage(ctx, staticSource(), img, 0, 0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ByImage(ctx, staticSource(), img, 10, 1.5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ByImage(ctx, staticSource(), img, 10, -0.1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestByImageSourceError(t *testing.T) {
	boom := errors.New("database is locked")
	src := SourceFunc(func(context.Context) ([]model.ImageVector, error) { return nil, boom })

	_, err := ByImage(context.Background(), src, pngBytes(t, color.RGBA{1, 2, 3, 255}), 10, 0.5)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}
