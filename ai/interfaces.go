package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// BiasClassifier estimates the political-bias slant of an article.
// Implementations must be thread-safe for concurrent use.
type BiasClassifier interface {
	// ClassifyBias scores article text on a 0 to 1 scale, where 0 is far
	// left, 0.5 is center, and 1 is far right.
	// Returns an error if classification fails; callers treat the score as
	// optional and may proceed without it.
	ClassifyBias(ctx context.Context, text string) (float64, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and BiasClassifier
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// BiasClassifier returns the bias classification service.
	// The returned BiasClassifier is safe for concurrent use.
	BiasClassifier() BiasClassifier

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
