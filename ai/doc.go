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


// Package ai provides abstractions for the AI services the assistant uses.
//
// It defines interfaces for generative completion and text embeddings so the
// pipeline and storage layers depend on abstractions rather than a concrete
// provider.
//
// # Interfaces
//
//   - Completer: single-prompt generative completion
//   - Embedder: vector embeddings for semantic similarity search
//   - AIProvider: aggregates both for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// Production constructors (openai.NewProvider, openai.NewCompleter, ...)
// return interface types to enforce abstraction. Mock constructors return
// concrete types so tests can inject behavior and assert call counts.
//
// # Failure Model
//
// The Completer performs no retries; any transport, status, or decode
// failure surfaces as *UpstreamError, and callers own their fallback
// policy. A missing endpoint is the one unrecoverable condition and is
// reported as ErrNotConfigured at construction time.
package ai
