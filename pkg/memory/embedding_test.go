package memory

import "context"

// MockEmbeddingProvider generates deterministic embeddings for testing.
// Individual texts can be pinned to exact vectors, and the provider can be
// switched into a failing state to exercise degradation paths.
type MockEmbeddingProvider struct {
	dimension int
	pinned    map[string][]float32
	failWith  error
}

func NewMockEmbeddingProvider(dimension int) *MockEmbeddingProvider {
	return &MockEmbeddingProvider{
		dimension: dimension,
		pinned:    make(map[string][]float32),
	}
}

func (p *MockEmbeddingProvider) Dimension() int {
	return p.dimension
}

// Pin fixes the vector returned for an exact text
func (p *MockEmbeddingProvider) Pin(text string, vec []float32) {
	p.pinned[text] = vec
}

// FailWith makes every call return err until reset with nil
func (p *MockEmbeddingProvider) FailWith(err error) {
	p.failWith = err
}

func (p *MockEmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if p.failWith != nil {
		return nil, p.failWith
	}
	if vec, ok := p.pinned[text]; ok {
		return vec, nil
	}

	// Deterministic embedding based on text hash
	embedding := make([]float32, p.dimension)
	hash := 0
	for _, c := range text {
		hash = hash*31 + int(c)
	}
	for i := 0; i < p.dimension; i++ {
		embedding[i] = float32((hash+i)%100) / 100.0
	}
	return embedding, nil
}

func (p *MockEmbeddingProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := p.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
