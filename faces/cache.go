package faces

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// EmbeddingCache remembers enrollment embeddings between restarts. Misses and
// failures are not errors: the embedding is simply computed again.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) (Embedding, bool)
	Set(ctx context.Context, key string, embedding Embedding)
}

// CacheKey identifies an enrollment image for a given engine model.
func CacheKey(model string, data []byte) string {
	sum := sha256.Sum256(data)
	return model + ":" + hex.EncodeToString(sum[:])
}
