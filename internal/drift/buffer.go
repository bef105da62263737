package drift

// SampleBuffer holds the two bounded windows drift is computed over: a
// reference baseline and a sliding current window. It is not safe for
// concurrent use on its own; the owning Monitor serializes access.
type SampleBuffer[T Sample] struct {
	reference []T
	current   []T

	referenceSize int
	detectionSize int
}

func NewSampleBuffer[T Sample](referenceSize, detectionSize int) *SampleBuffer[T] {
	return &SampleBuffer[T]{
		reference:     make([]T, 0, referenceSize),
		current:       make([]T, 0, detectionSize),
		referenceSize: referenceSize,
		detectionSize: detectionSize,
	}
}

// Add appends a sample to the current window. Once the current window is
// full, the oldest sample either seeds the reference window (while it is
// still filling) or is discarded. During warm-up, a full current window
// additionally backfills the reference from its front; a backfilled sample
// counts toward both windows, matching the behavior external dashboards were
// built against.
func (b *SampleBuffer[T]) Add(sample T) {
	b.current = append(b.current, sample)

	if len(b.current) > b.detectionSize {
		if len(b.reference) < b.referenceSize {
			b.reference = append(b.reference, b.current[0])
		}
		b.current = b.current[1:]
	}

	if len(b.reference) < b.referenceSize && len(b.current) >= b.detectionSize {
		need := b.referenceSize - len(b.reference)
		if need > len(b.current) {
			need = len(b.current)
		}
		b.reference = append(b.reference, b.current[:need]...)
	}
}

// ReadyForDrift reports whether both windows hold enough samples for a
// comparison.
func (b *SampleBuffer[T]) ReadyForDrift() bool {
	return len(b.reference) >= b.referenceSize && len(b.current) >= b.detectionSize
}

// ResetReference promotes recent traffic to be the new baseline. If the
// current window holds at least referenceSize samples the oldest of them
// become the reference and the remainder stay current; otherwise the whole
// current window becomes the reference and the current window starts empty.
func (b *SampleBuffer[T]) ResetReference() {
	if len(b.current) >= b.referenceSize {
		newRef := make([]T, b.referenceSize)
		copy(newRef, b.current[:b.referenceSize])

		rest := make([]T, len(b.current)-b.referenceSize)
		copy(rest, b.current[b.referenceSize:])

		b.reference = newRef
		b.current = rest
		return
	}

	newRef := make([]T, len(b.current))
	copy(newRef, b.current)
	b.reference = newRef
	b.current = make([]T, 0, b.detectionSize)
}

func (b *SampleBuffer[T]) ReferenceLen() int { return len(b.reference) }

func (b *SampleBuffer[T]) CurrentLen() int { return len(b.current) }

// CurrentSamples returns a copy of the current window, oldest first.
func (b *SampleBuffer[T]) CurrentSamples() []T {
	out := make([]T, len(b.current))
	copy(out, b.current)
	return out
}

// Snapshot copies both windows into column-oriented datasets so the
// comparison can run without holding the buffer lock.
func (b *SampleBuffer[T]) Snapshot(schema Schema) (reference, current Dataset) {
	return datasetFrom(b.reference, schema), datasetFrom(b.current, schema)
}

func datasetFrom[T Sample](samples []T, schema Schema) Dataset {
	d := Dataset{
		Numeric:     make(map[string][]float64, len(schema.Numeric)),
		Categorical: make(map[string][]string, len(schema.Categorical)),
		Size:        len(samples),
	}

	for _, name := range schema.Numeric {
		col := make([]float64, len(samples))
		for i, s := range samples {
			col[i] = s.NumericFeatures()[name]
		}
		d.Numeric[name] = col
	}

	for _, name := range schema.Categorical {
		col := make([]string, len(samples))
		for i, s := range samples {
			col[i] = s.CategoricalFeatures()[name]
		}
		d.Categorical[name] = col
	}

	return d
}
