package valueobjects

// Confidence is a bounded score in [0, 1] attached to AI-suggested relations
type Confidence struct {
	value float64
}

// NewConfidence creates a Confidence, clamping the input into [0, 1].
// NaN is treated as zero so a bad provider score never escapes the bound.
func NewConfidence(v float64) Confidence {
	if v != v {
		return Confidence{value: 0}
	}
	if v < 0 {
		return Confidence{value: 0}
	}
	if v > 1 {
		return Confidence{value: 1}
	}
	return Confidence{value: v}
}

// Value returns the underlying score
func (c Confidence) Value() float64 { return c.value }

// AtLeast reports whether the score meets a threshold
func (c Confidence) AtLeast(threshold float64) bool { return c.value >= threshold }
