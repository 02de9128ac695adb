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


package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/NamNhiBinhHipHop/immi-law/ai"
	"github.com/NamNhiBinhHipHop/immi-law/core"
	"github.com/NamNhiBinhHipHop/immi-law/storage"
	"github.com/panjf2000/ants/v2"
)

// embedBatchSize is the number of chunk texts sent per embedding request.
const embedBatchSize = 16

// Pipeline splits documents into chunks, embeds them, and stores them.
type Pipeline struct {
	repository storage.ChunkRepository
	embedder   ai.Embedder
	pool       *ants.Pool
	chunkSize  int
	overlap    int
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunking overrides the default word-window chunking parameters.
func WithChunking(chunkSize, overlap int) Option {
	return func(p *Pipeline) error {
		if chunkSize > 0 {
			p.chunkSize = chunkSize
		}
		if overlap >= 0 && overlap < p.chunkSize {
			p.overlap = overlap
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.ChunkRepository, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		embedder:   provider.Embedder(),
		pool:       pool,
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		logger:     slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestDocument splits a document into chunks, embeds every chunk, and
// stores the result. Returns the stored chunks. Re-ingesting an unchanged
// document is idempotent because chunk IDs derive from content.
func (p *Pipeline) IngestDocument(ctx context.Context, document, text string) ([]*core.Chunk, error) {
	if document == "" {
		return nil, ErrEmptyDocumentName
	}

	texts := SplitWords(text, p.chunkSize, p.overlap)
	if len(texts) == 0 {
		return nil, ErrEmptyContent
	}

	p.logger.Info("ingesting document", "document", document, "chunks", len(texts))

	vectors, err := p.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = &core.Chunk{
			Document: document,
			Index:    i,
			Text:     t,
			Vector:   vectors[i],
		}
	}

	return p.repository.AddChunks(ctx, chunks...)
}

// embedAll embeds texts in fixed-size batches fanned out over the worker
// pool. Results stay aligned with the input order.
func (p *Pipeline) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			batch, err := p.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(vectors[start:end], batch)
		})
		if err != nil {
			wg.Done()
			return nil, err
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	return vectors, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
