package imaging

import (
	"image"
	"math/bits"

	"golang.org/x/image/draw"
)

// Feature extractor parameters.
const (
	// FeatureSize is the side of the square the image is resampled to.
	FeatureSize = 224
	// HistogramBins is the number of bins per colour channel.
	HistogramBins = 32
	// FeatureLength is the length of every feature vector.
	FeatureLength = 3 * HistogramBins
)

// Descriptor identifies the feature extractor. Stored vectors produced by a
// different descriptor are not comparable and need a reindex.
const Descriptor = "rgbhist-32x3-224"

// Features decodes image data and returns its feature vector.
func Features(data []byte) ([]float32, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return FeaturesFromImage(img), nil
}

// FeaturesFromImage returns the colour-histogram feature vector of img:
// 32-bin R, G and B histograms of a 224x224 bilinear resample, concatenated
// and normalized to sum to 1.
func FeaturesFromImage(img image.Image) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, FeatureSize, FeatureSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var counts [FeatureLength]int
	// 256 values / 32 bins = 8 values per bin.
	shift := bits.TrailingZeros(256 / HistogramBins)
	pix := dst.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		counts[int(pix[i]>>shift)]++
		counts[HistogramBins+int(pix[i+1]>>shift)]++
		counts[2*HistogramBins+int(pix[i+2]>>shift)]++
	}

	total := float32(3 * FeatureSize * FeatureSize)
	features := make([]float32, FeatureLength)
	for i, c := range counts {
		features[i] = float32(c) / total
	}
	return features
}
