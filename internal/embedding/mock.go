package embedding

import (
	"context"
	"hash/fnv"
)

// MockClient produces a deterministic pseudo-embedding from the text so
// tests can assert on stable vectors without a network call.
type MockClient struct {
	Dimensions int
	Err        error
	Calls      []string
}

func NewMockClient() *MockClient {
	return &MockClient{Dimensions: 8}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.Calls = append(c.Calls, text)
	if c.Err != nil {
		return nil, c.Err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	out := make([]float32, c.Dimensions)
	for i := range out {
		seed = seed*6364136223846793005 + 1442695040888963407
		out[i] = float32(seed%2000)/1000 - 1
	}
	return out, nil
}
