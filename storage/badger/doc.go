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


// Package badger implements chunk storage on BadgerDB.
//
// Chunks are stored under content-derived keys alongside a per-document
// key index, so document listing and deletion do not require scanning
// chunk values. Similarity search is a full scan with an in-memory
// dot-product ranking, which is adequate for collections in the tens of
// thousands of chunks.
package badger
