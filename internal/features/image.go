package features

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
)

// ImageStats are the image-level features shared by both domains, computed
// over the grayscale rendition of the upload.
type ImageStats struct {
	Brightness  float64
	Contrast    float64
	Width       int
	Height      int
	AspectRatio float64
}

// ExtractImageStats decodes the image and computes luminance mean
// (brightness) and standard deviation (contrast). Degenerate geometry
// defaults to an aspect ratio of 1.0 so every successful inference yields a
// complete record.
func ExtractImageStats(data []byte) (ImageStats, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ImageStats{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return statsFromImage(img), nil
}

func statsFromImage(img image.Image) ImageStats {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	n := float64(width) * float64(height)
	if n == 0 {
		return ImageStats{AspectRatio: 1.0}
	}

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R 601 luma on 8-bit channels, matching the usual
			// RGB-to-grayscale conversion.
			lum := (299*float64(r>>8) + 587*float64(g>>8) + 114*float64(b>>8)) / 1000
			sum += lum
			sumSq += lum * lum
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	aspectRatio := 1.0
	if height > 0 {
		aspectRatio = float64(width) / float64(height)
	}

	return ImageStats{
		Brightness:  mean,
		Contrast:    math.Sqrt(variance),
		Width:       width,
		Height:      height,
		AspectRatio: aspectRatio,
	}
}
