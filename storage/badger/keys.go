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
	"fmt"

	"github.com/NamNhiBinhHipHop/immi-law/core"
)

const (
	// chunkPrefix is the key prefix for chunk records.
	chunkPrefix = "chk"

	// docIndexPrefix is the key prefix for the document index,
	// mapping document names to the chunk IDs they contain.
	docIndexPrefix = "doc"
)

// makeChunkKey creates a storage key for a chunk: "chk:{id}".
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeDocIndexKey creates a document index key: "doc:{document}:{id}".
// The value stored under it is empty; the key itself is the index entry.
func makeDocIndexKey(document string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", docIndexPrefix, document, id))
}

// makeDocIndexPrefix creates the key prefix covering every index entry
// for a single document.
func makeDocIndexPrefix(document string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", docIndexPrefix, document))
}
