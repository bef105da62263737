package drift

import (
	"math"
	"sync"
)

// Meter is a memoryless companion signal to the windowed drift report: the
// cosine distance between a fixed baseline embedding and the embedding proxy
// of the request at hand. The baseline is the first embedding seen after
// start (or after Reset) and is never mutated otherwise.
type Meter struct {
	mu       sync.Mutex
	baseline []float64
}

func NewMeter() *Meter {
	return &Meter{}
}

// Observe returns 1 - cosine_similarity(baseline, embedding), setting the
// baseline from the first embedding seen.
func (m *Meter) Observe(embedding []float64) float64 {
	m.mu.Lock()
	if m.baseline == nil {
		m.baseline = make([]float64, len(embedding))
		copy(m.baseline, embedding)
	}
	baseline := m.baseline
	m.mu.Unlock()

	return 1 - cosineSimilarity(baseline, embedding)
}

// Reset clears the baseline; the next Observe re-seeds it.
func (m *Meter) Reset() {
	m.mu.Lock()
	m.baseline = nil
	m.mu.Unlock()
}

// Baseline returns a copy of the current baseline, or nil if none is set.
func (m *Meter) Baseline() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.baseline == nil {
		return nil
	}
	out := make([]float64, len(m.baseline))
	copy(out, m.baseline)
	return out
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
