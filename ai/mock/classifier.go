package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"
)

// BiasClassifier is a test double for ai.BiasClassifier.
// It allows custom behavior injection via function fields.
type BiasClassifier struct {
	// ClassifyBiasFunc is called by ClassifyBias if set.
	// If nil, uses default deterministic behavior.
	ClassifyBiasFunc func(ctx context.Context, text string) (float64, error)

	callCount atomic.Int64
}

// NewBiasClassifier creates a mock classifier with default deterministic
// behavior. Returns the concrete type so tests can inject behavior and
// assert calls.
func NewBiasClassifier() *BiasClassifier {
	return &BiasClassifier{}
}

// ClassifyBias returns a deterministic score in [0, 1] derived from the text
// hash, so the same article always classifies identically.
func (m *BiasClassifier) ClassifyBias(ctx context.Context, text string) (float64, error) {
	m.callCount.Add(1)

	if m.ClassifyBiasFunc != nil {
		return m.ClassifyBiasFunc(ctx, text)
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	return float64(h.Sum32()%1000) / 1000.0, nil
}

// CallCount returns the number of times ClassifyBias was called.
func (m *BiasClassifier) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *BiasClassifier) Reset() {
	m.callCount.Store(0)
	m.ClassifyBiasFunc = nil
}
