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


package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs, which makes
// re-ingesting the same document an idempotent upsert.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is one retrievable unit of a source document.
// It may be enriched with an embedding vector during ingestion.
type Chunk struct {
	Id         ID
	Document   string    // Name of the source document
	Index      int       // Position of the chunk within the document
	Text       string    // The chunk contents
	Vector     []float32 // Embedding vector for semantic search (populated by ingestion)
	InsertedAt time.Time // When the chunk was inserted into the store
}

// Key returns the string the chunk's content-based ID is derived from.
// Document name and index are included so identical passages in different
// documents remain distinct records.
func (c *Chunk) Key() string {
	return fmt.Sprintf("%s#%d#%s", c.Document, c.Index, c.Text)
}

// SearchResult represents a similarity-search hit with its relevance score.
// Scores are in [0, 1] with 1.0 being the most similar.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

// DocumentInfo summarizes one ingested document.
type DocumentInfo struct {
	Name   string
	Chunks int
}

// Exchange is one prior question/answer turn in a conversation.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
