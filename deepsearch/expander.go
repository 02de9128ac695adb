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


package deepsearch

import "context"

// expand turns the original query into diverse sub-queries. Expansion
// must never eliminate coverage, so any upstream or parse failure falls
// back to a single-element list holding the original query.
func (p *Pipeline) expand(ctx context.Context, query, history string, trace *Trace) []string {
	reply, err := p.completer.Complete(ctx, buildExpansionPrompt(query, history, p.config.SubQueryCount))
	if err != nil {
		trace.Add("expansion error, falling back to original query: %v", err)
		return []string{query}
	}

	subQueries, err := parseStringList(reply)
	if err != nil || len(subQueries) == 0 {
		trace.Add("expansion reply unusable, falling back to original query: %v", err)
		return []string{query}
	}

	trace.Add("expanded into %d sub-queries", len(subQueries))
	return subQueries
}
