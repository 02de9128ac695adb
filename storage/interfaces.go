package storage

import (
	"context"

	"github.com/NamNhiBinhHipHop/immi-law/core"
)

// ChunkRepository provides operations for managing document chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks adds one or more chunks to storage.
	// IDs are derived from chunk content (IDFromContent of Chunk.Key),
	// so re-adding the same chunk is an idempotent upsert.
	// Sets InsertedAt if not already set.
	// Returns the chunks with IDs and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// ListDocuments lists all ingested documents with their chunk counts,
	// sorted by document name.
	ListDocuments(ctx context.Context) ([]core.DocumentInfo, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// DeleteDocument removes all chunks belonging to the named document.
	// Returns ErrNotFound if no chunks exist for that document.
	DeleteDocument(ctx context.Context, document string) error

	// DeleteAll removes every chunk from the store.
	DeleteAll(ctx context.Context) error

	// ForEachChunk iterates over all stored chunks in key order.
	// Iteration stops on the first error returned by fn.
	ForEachChunk(ctx context.Context, fn func(chunk *core.Chunk) error) error

	// UpdateVectors replaces the stored embedding vectors of the given chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateVectors(ctx context.Context, chunks ...*core.Chunk) error

	// Close releases resources held by the repository.
	Close() error
}
