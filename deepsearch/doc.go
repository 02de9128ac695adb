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


// Package deepsearch implements the iterative retrieval-and-reasoning
// pipeline that answers questions against the chunk store.
//
// A query is first classified as in-domain or not. Off-domain queries get
// a single direct completion. In-domain queries are expanded into diverse
// sub-queries, each sub-query is answered strictly from retrieved chunks,
// and a quality gate decides whether the accumulated answers suffice or
// whether new sub-queries are needed. After at most Config.MaxIterations
// rounds the accepted answers are turned into an outline and then
// synthesized into the final prose answer.
//
// Every stage that calls the language model substitutes a documented
// fallback on failure, so a pipeline run always terminates with an
// answer. Each invocation owns its own Trace; concurrent runs do not
// share state.
package deepsearch
