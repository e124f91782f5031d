package embedding

import "context"

// EmbeddingProvider defines the interface for generating text embeddings.
// The returned vector is treated as opaque by everything above the store.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
