package ai

import "context"

// Completer generates text from a single prompt using a remote language model.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends one prompt to the model and returns its reply verbatim.
	// The call is stateless and performs no retries; failures are reported
	// as *UpstreamError so callers can apply their own fallback policy.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Completer and
// Embedder instances, ensuring they share configuration.
type AIProvider interface {
	// Completer returns the generative completion service.
	// The returned Completer is safe for concurrent use.
	Completer() Completer

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
