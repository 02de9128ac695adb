// Copyright 2025 The Immi-Law Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NamNhiBinhHipHop/immi-law/core"
	"github.com/NamNhiBinhHipHop/immi-law/storage"
	"github.com/dgraph-io/badger/v4"
)

// ChunkRepository implements storage.ChunkRepository using BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a chunk repository on top of an open backend.
// The backend is shared; closing the repository closes it.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &ChunkRepository{backend: backend}, nil
}

// AddChunks adds one or more chunks to storage.
// IDs are content-derived, so re-adding the same chunk is an upsert.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	now := time.Now()
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
		if chunk.Id == 0 {
			chunk.Id = core.IDFromContent(chunk.Key())
		}
		if chunk.InsertedAt.IsZero() {
			chunk.InsertedAt = now
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			data, err := storage.MarshalChunk(chunk)
			if err != nil {
				return err
			}
			if err := tx.Set(makeChunkKey(chunk.Id), data); err != nil {
				return err
			}
			if err := tx.Set(makeDocIndexKey(chunk.Document, chunk.Id), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// FindSimilar finds chunks similar to the given vector.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var chunk *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return chunk, nil
}

// ListDocuments lists ingested documents with their chunk counts,
// sorted by document name.
func (r *ChunkRepository) ListDocuments(ctx context.Context) ([]core.DocumentInfo, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	counts := make(map[string]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docIndexPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := string(iter.Item().Key())
			document, ok := parseDocIndexKey(key)
			if !ok {
				continue
			}
			counts[document]++
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	docs := make([]core.DocumentInfo, 0, len(counts))
	for name, n := range counts {
		docs = append(docs, core.DocumentInfo{Name: name, Chunks: n})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	return docs, nil
}

// parseDocIndexKey extracts the document name from a "doc:{document}:{id}"
// key. Document names may themselves contain colons, so the ID is taken
// after the last separator.
func parseDocIndexKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, docIndexPrefix+":")
	if !ok {
		return "", false
	}
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", false
	}
	return rest[:idx], true
}

// CountChunks returns the total number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteDocument removes every chunk belonging to the named document.
func (r *ChunkRepository) DeleteDocument(ctx context.Context, document string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocIndexPrefix(document)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var indexKeys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			// The prefix scan also matches documents whose name extends
			// this one, e.g. "a:1" under the prefix for "a".
			if name, ok := parseDocIndexKey(string(key)); !ok || name != document {
				continue
			}
			indexKeys = append(indexKeys, key)
		}
		iter.Close()

		if len(indexKeys) == 0 {
			return storage.ErrNotFound
		}

		for _, indexKey := range indexKeys {
			key := string(indexKey)
			idx := strings.LastIndex(key, ":")
			var id core.ID
			if _, err := fmt.Sscanf(key[idx+1:], "%d", &id); err != nil {
				return fmt.Errorf("malformed document index key %q: %w", key, err)
			}
			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(indexKey); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteAll removes every chunk and document index entry from the store.
func (r *ChunkRepository) DeleteAll(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := r.backend.DropPrefix([]byte(chunkPrefix + ":")); err != nil {
		return err
	}
	return r.backend.DropPrefix([]byte(docIndexPrefix + ":"))
}

// ForEachChunk iterates over all stored chunks in key order.
func (r *ChunkRepository) ForEachChunk(ctx context.Context, fn func(chunk *core.Chunk) error) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// UpdateVectors replaces the stored embedding vectors of the given chunks.
func (r *ChunkRepository) UpdateVectors(ctx context.Context, chunks ...*core.Chunk) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			item, err := tx.Get(makeChunkKey(chunk.Id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					return fmt.Errorf("chunk %d: %w", chunk.Id, storage.ErrNotFound)
				}
				return err
			}

			var stored *core.Chunk
			err = item.Value(func(val []byte) error {
				var err error
				stored, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}

			stored.Vector = chunk.Vector
			data, err := storage.MarshalChunk(stored)
			if err != nil {
				return err
			}
			if err := tx.Set(makeChunkKey(chunk.Id), data); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Close closes the underlying database.
func (r *ChunkRepository) Close() error {
	return r.backend.Close()
}
