package features

import (
	"time"

	"github.com/inferwatch/backend/internal/drift"
)

// EmbeddingDim is the length of the detection embedding proxy: the
// per-coordinate mean of the detected bounding boxes.
const EmbeddingDim = 4

// Box is one detected bounding box with its confidence, as returned by the
// upstream detector.
type Box struct {
	X1         float64
	Y1         float64
	X2         float64
	Y2         float64
	Confidence float64
}

// DetectionFeatures is the fixed feature record for the object-detection
// domain. All fields are always populated.
type DetectionFeatures struct {
	Brightness     float64                `json:"brightness"`
	Contrast       float64                `json:"contrast"`
	AspectRatio    float64                `json:"aspect_ratio"`
	Width          int                    `json:"width"`
	Height         int                    `json:"height"`
	NumDetections  int                    `json:"num_detections"`
	AvgConfidence  float64                `json:"avg_confidence"`
	EmbeddingProxy [EmbeddingDim]float64  `json:"embedding_proxy"`
	VRAMAllocated  float64                `json:"vram_allocated"`
	CreatedAt      time.Time              `json:"timestamp"`
}

// DetectionSchema lists the monitored columns for the detection domain. The
// embedding proxy is flattened into one numeric column per coordinate.
var DetectionSchema = drift.Schema{
	Numeric: []string{
		"brightness", "contrast", "aspect_ratio", "width", "height",
		"num_detections", "avg_confidence",
		"embedding_0", "embedding_1", "embedding_2", "embedding_3",
		"vram_allocated",
	},
}

// ExtractDetection derives the detection feature record from the image stats
// and the raw detector output. It never fails: an empty detection set falls
// back to a brightness-seeded embedding proxy.
func ExtractDetection(stats ImageStats, boxes []Box, vramAllocated float64) DetectionFeatures {
	avgConfidence := 0.0
	if len(boxes) > 0 {
		var total float64
		for _, b := range boxes {
			total += b.Confidence
		}
		avgConfidence = total / float64(len(boxes))
	}

	return DetectionFeatures{
		Brightness:     stats.Brightness,
		Contrast:       stats.Contrast,
		AspectRatio:    stats.AspectRatio,
		Width:          stats.Width,
		Height:         stats.Height,
		NumDetections:  len(boxes),
		AvgConfidence:  avgConfidence,
		EmbeddingProxy: embeddingProxy(boxes, stats.Brightness),
		VRAMAllocated:  vramAllocated,
		CreatedAt:      time.Now(),
	}
}

func embeddingProxy(boxes []Box, brightness float64) [EmbeddingDim]float64 {
	if len(boxes) == 0 {
		return [EmbeddingDim]float64{brightness, brightness, brightness, brightness}
	}

	var proxy [EmbeddingDim]float64
	for _, b := range boxes {
		proxy[0] += b.X1
		proxy[1] += b.Y1
		proxy[2] += b.X2
		proxy[3] += b.Y2
	}

	n := float64(len(boxes))
	for i := range proxy {
		proxy[i] /= n
	}
	return proxy
}

func (f DetectionFeatures) NumericFeatures() map[string]float64 {
	return map[string]float64{
		"brightness":     f.Brightness,
		"contrast":       f.Contrast,
		"aspect_ratio":   f.AspectRatio,
		"width":          float64(f.Width),
		"height":         float64(f.Height),
		"num_detections": float64(f.NumDetections),
		"avg_confidence": f.AvgConfidence,
		"embedding_0":    f.EmbeddingProxy[0],
		"embedding_1":    f.EmbeddingProxy[1],
		"embedding_2":    f.EmbeddingProxy[2],
		"embedding_3":    f.EmbeddingProxy[3],
		"vram_allocated": f.VRAMAllocated,
	}
}

func (f DetectionFeatures) CategoricalFeatures() map[string]string {
	return nil
}

func (f DetectionFeatures) Timestamp() time.Time {
	return f.CreatedAt
}
