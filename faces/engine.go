package faces

import "context"

// FaceEngine is a face detector plus an embedding provider. Embeddings from different
// engines (or different Model values) are not comparable.
type FaceEngine interface {
	// Detect returns the faces found in img. Order is engine-defined and preserved by callers.
	Detect(ctx context.Context, img *Image) ([]Detection, error)
	// Embed computes the embedding of the face inside region. Degenerate regions fail with ErrEmbedding.
	Embed(ctx context.Context, img *Image, region Region) (Embedding, error)
	// Model names the model version, used to key cached embeddings.
	Model() string
}

// EmbedDetection returns the embedding computed together with d, asking the engine only when there is none.
func EmbedDetection(ctx context.Context, engine FaceEngine, img *Image, d Detection) (Embedding, error) {
	if len(d.Embedding) > 0 {
		return d.Embedding, nil
	}
	return engine.Embed(ctx, img, d.Region)
}
