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

import (
	"context"
	"strings"
	"sync"
)

// NoRelevantInformation is returned as the sub-answer when retrieval
// finds nothing for a sub-query.
const NoRelevantInformation = "No relevant information found."

// answerGrounded answers one sub-query strictly from retrieved chunks.
// Empty retrieval short-circuits without a completion call. Upstream
// failures degrade to the no-information sentinel so a round always
// produces an index-aligned answer.
func (p *Pipeline) answerGrounded(ctx context.Context, subQuery, history string, trace *Trace) string {
	vector, err := p.embedder.EmbedText(ctx, subQuery)
	if err != nil {
		trace.Add("embedding error for sub-query %q: %v", subQuery, err)
		return NoRelevantInformation
	}

	results, err := p.repository.FindSimilar(ctx, vector, p.config.MinSimilarity, p.config.RetrievalLimit)
	if err != nil {
		trace.Add("retrieval error for sub-query %q: %v", subQuery, err)
		return NoRelevantInformation
	}
	if len(results) == 0 {
		trace.Add("no chunks retrieved for sub-query %q", subQuery)
		return NoRelevantInformation
	}

	texts := make([]string, len(results))
	for i, result := range results {
		texts[i] = result.Chunk.Text
	}
	docContext := strings.Join(texts, "\n")

	answer, err := p.completer.Complete(ctx, buildGroundedAnswerPrompt(subQuery, history, docContext))
	if err != nil {
		trace.Add("completion error for sub-query %q: %v", subQuery, err)
		return NoRelevantInformation
	}

	return answer
}

// answerAll answers every sub-query in the current round, fanned out over
// the worker pool. The returned answer list is index-aligned with the
// sub-query list.
func (p *Pipeline) answerAll(ctx context.Context, subQueries []string, history string, trace *Trace) []string {
	answers := make([]string, len(subQueries))

	var wg sync.WaitGroup
	for i, subQuery := range subQueries {
		i, subQuery := i, subQuery

		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			trace.Add("answering sub-query: %s", subQuery)
			answers[i] = p.answerGrounded(ctx, subQuery, history, trace)
		}); err != nil {
			// Pool rejected the task (released or overloaded); answer inline.
			trace.Add("answering sub-query inline: %s", subQuery)
			answers[i] = p.answerGrounded(ctx, subQuery, history, trace)
			wg.Done()
		}
	}
	wg.Wait()

	return answers
}
