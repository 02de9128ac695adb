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

// gateVerdict is the structured reply expected from the quality gate.
type gateVerdict struct {
	KeyPoints      []string `json:"key_points"`
	KnowledgeGaps  []string `json:"knowledge_gaps"`
	NewQueries     []string `json:"new_queries"`
	SearchComplete bool     `json:"search_complete"`
	Reasoning      string   `json:"reasoning"`
}

// evaluate asks the model whether the current answers suffice. It fails
// open: any upstream or parse failure accepts the search as complete and
// keeps the existing sub-queries, guaranteeing forward progress. When
// accepted, the returned query list equals the current sub-queries; when
// rejected, it is the model's proposed replacement queries.
func (p *Pipeline) evaluate(ctx context.Context, subQueries, answers []string, originalQuery string, iteration int, previousGaps []string, history string, trace *Trace) (bool, []string) {
	prompt := buildGatePrompt(answers, previousGaps, originalQuery, iteration, p.config.MaxIterations, history)

	reply, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		trace.Add("quality gate error, accepting by default: %v", err)
		return true, subQueries
	}

	var verdict gateVerdict
	if err := parseObject(reply, &verdict); err != nil {
		trace.Add("quality gate reply unusable, accepting by default: %v", err)
		return true, subQueries
	}

	trace.Add("quality gate verdict: complete=%t gaps=%d new=%d",
		verdict.SearchComplete, len(verdict.KnowledgeGaps), len(verdict.NewQueries))

	if verdict.SearchComplete {
		return true, subQueries
	}
	if len(verdict.NewQueries) == 0 {
		// Incomplete with nothing new to ask is a dead end; accept.
		trace.Add("quality gate proposed no new queries, accepting")
		return true, subQueries
	}
	return false, verdict.NewQueries
}

// mergeGaps appends genuinely new entries to the accumulated gap set,
// deduplicated by exact match. The set only ever grows; it records every
// query already proposed so the gate does not suggest it again.
func mergeGaps(existing, proposed []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, gap := range existing {
		seen[gap] = struct{}{}
	}

	for _, gap := range proposed {
		if _, ok := seen[gap]; ok {
			continue
		}
		seen[gap] = struct{}{}
		existing = append(existing, gap)
	}
	return existing
}
