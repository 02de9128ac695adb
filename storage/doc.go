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


// Package storage provides the chunk-store abstraction layer.
//
// It defines the ChunkRepository interface that decouples the deep-search
// pipeline and ingestion from the storage implementation, so different
// backends (BadgerDB, in-memory, a remote vector database) can be used
// interchangeably.
//
// Public constructors in backend packages return the storage interfaces
// rather than concrete types, which keeps consumers decoupled from any
// particular index technology.
package storage
