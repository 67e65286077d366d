package mock

import (
	"context"
	"hash/fnv"
	"sync"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// FailEvery makes every Nth call fail with FailErr when > 0. Used to
	// exercise retry and partial-failure paths in the indexing pipeline.
	FailEvery int
	FailErr   error

	mu        sync.Mutex
	callCount int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: returns the concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := m.count(); err != nil {
		return nil, err
	}

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	return generateDeterministicVector(text, 384), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := m.count(); err != nil {
		return nil, err
	}

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = generateDeterministicVector(text, 384)
	}
	return embeddings, nil
}

func (m *MockEmbedder) count() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.FailEvery > 0 && m.callCount%m.FailEvery == 0 {
		return m.FailErr
	}
	return nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
	m.FailEvery = 0
	m.FailErr = nil
}

// generateDeterministicVector creates a deterministic embedding vector from
// text. It uses FNV hash to ensure the same text always produces the same
// vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	// Normalize to unit vector
	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := float32(1.0) / float32(sumSquares)
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
