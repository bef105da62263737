package features

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uniformImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestExtractImageStatsUniform(t *testing.T) {
	data := encodePNG(t, uniformImage(8, 4, color.RGBA{R: 100, G: 100, B: 100, A: 255}))

	stats, err := ExtractImageStats(data)
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Width)
	assert.Equal(t, 4, stats.Height)
	assert.InDelta(t, 2.0, stats.AspectRatio, 1e-9)

	// uniform gray: brightness equals the channel value, contrast is zero
	assert.InDelta(t, 100.0, stats.Brightness, 0.5)
	assert.InDelta(t, 0.0, stats.Contrast, 1e-6)
}

func TestExtractImageStatsBlackWhite(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{A: 255})
	img.Set(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	stats, err := ExtractImageStats(encodePNG(t, img))
	require.NoError(t, err)

	assert.InDelta(t, 127.5, stats.Brightness, 0.5)
	assert.InDelta(t, 127.5, stats.Contrast, 0.5)
}

func TestExtractImageStatsRejectsGarbage(t *testing.T) {
	_, err := ExtractImageStats([]byte("not an image"))
	assert.Error(t, err)

	_, err = ExtractImageStats(nil)
	assert.Error(t, err)
}
