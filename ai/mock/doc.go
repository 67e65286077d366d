// Package mock provides test double implementations of the embedding
// interface.
//
// MockEmbedder lets tests run without an external embedding service and with
// controlled, deterministic behavior: the same text always produces the same
// vector, custom behavior can be injected via function fields, and FailEvery
// injects periodic failures to exercise retry and degraded-index paths.
//
// # Usage in Tests
//
//	m := mock.NewMockEmbedder()
//	vec, err := m.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Failure injection: every 3rd call fails
//	m.FailEvery = 3
//	m.FailErr = errors.New("embedding service unavailable")
//
//	count := m.CallCount()
package mock
