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

import "strings"

const (
	// DefaultChunkSize is the chunk size in words.
	DefaultChunkSize = 300

	// DefaultChunkOverlap is the number of words shared between
	// consecutive chunks.
	DefaultChunkOverlap = 50
)

// SplitWords splits text into overlapping word-window chunks.
// Consecutive chunks share overlap words; the final chunk may be shorter
// than chunkSize. Whitespace runs collapse to single spaces.
func SplitWords(text string, chunkSize, overlap int) []string {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := chunkSize - overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks
}
