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


// Package immilaw is an immigration-law document assistant. It answers
// questions against an ingested document corpus through an iterative
// deep-search pipeline backed by a local vector store.
package immilaw

import (
	"context"
	"io"
	"log/slog"

	"github.com/NamNhiBinhHipHop/immi-law/ai"
	"github.com/NamNhiBinhHipHop/immi-law/ai/openai"
	"github.com/NamNhiBinhHipHop/immi-law/core"
	"github.com/NamNhiBinhHipHop/immi-law/deepsearch"
	"github.com/NamNhiBinhHipHop/immi-law/ingest"
	"github.com/NamNhiBinhHipHop/immi-law/reindex"
	"github.com/NamNhiBinhHipHop/immi-law/storage"
	"github.com/NamNhiBinhHipHop/immi-law/storage/badger"
)

// Assistant owns the storage backend and the AI provider, and hands out
// the pipelines built on top of them.
type Assistant struct {
	backend   *badger.Backend
	chunkRepo storage.ChunkRepository
	provider  ai.AIProvider
	logger    *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig overrides the default AI endpoint configuration.
func WithAIConfig(config *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// Open opens the assistant's store at filePath and connects the AI
// provider.
func Open(filePath string, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Assistant{
		backend:   backend,
		chunkRepo: chunkRepo,
		provider:  provider,
		logger:    slog.Default(),
	}, nil
}

// Close releases the AI provider and the storage backend.
func (a *Assistant) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// ChunkRepository returns the chunk store.
func (a *Assistant) ChunkRepository() storage.ChunkRepository {
	return a.chunkRepo
}

// Provider returns the AI provider.
func (a *Assistant) Provider() ai.AIProvider {
	return a.provider
}

// NewPipeline creates a deep-search pipeline over the assistant's store.
func (a *Assistant) NewPipeline(config *deepsearch.Config, opts ...deepsearch.Option) (*deepsearch.Pipeline, error) {
	return deepsearch.NewPipeline(a.chunkRepo, a.provider, config, opts...)
}

// NewIngestPipeline creates a document ingestion pipeline.
func (a *Assistant) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(a.chunkRepo, a.provider, opts...)
}

// NewReindexer creates a reindexer that re-embeds every stored chunk.
func (a *Assistant) NewReindexer(config *reindex.Config, progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(a.chunkRepo, a.provider.Embedder(), config, progress)
}

// Search embeds the query and returns the most similar chunks.
func (a *Assistant) Search(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	vector, err := a.provider.Embedder().EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	return a.chunkRepo.FindSimilar(ctx, vector, 0, limit)
}
