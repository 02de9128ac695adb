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
	"testing"

	"github.com/NamNhiBinhHipHop/immi-law/ai"
	"github.com/NamNhiBinhHipHop/immi-law/ai/mock"
	"github.com/NamNhiBinhHipHop/immi-law/core"
	"github.com/NamNhiBinhHipHop/immi-law/storage"
	badgerstore "github.com/NamNhiBinhHipHop/immi-law/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Prompt markers identifying which stage issued a completion call.
const (
	markClassifier = "expert classifier"
	markExpander   = "query expansion expert"
	markAnswerer   = "Based on the following document content"
	markGate       = "legal reasoning agent"
	markOutline    = "outline creator"
	markSynthesis  = "expert content writer"
	markDirect     = "expert immigration lawyer specialized"
)

// stageReplies routes mock completions by prompt content, mimicking one
// reply per pipeline stage.
type stageReplies struct {
	classifier string
	expander   string
	answerer   string
	gate       string
	outline    string
	synthesis  string
	direct     string
}

func (r stageReplies) route(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, markClassifier):
		return r.classifier, nil
	case strings.Contains(prompt, markExpander):
		return r.expander, nil
	case strings.Contains(prompt, markAnswerer):
		return r.answerer, nil
	case strings.Contains(prompt, markGate):
		return r.gate, nil
	case strings.Contains(prompt, markOutline):
		return r.outline, nil
	case strings.Contains(prompt, markSynthesis):
		return r.synthesis, nil
	case strings.Contains(prompt, markDirect):
		return r.direct, nil
	}
	return "unexpected prompt", nil
}

func countStageCalls(prompts []string, marker string) int {
	n := 0
	for _, prompt := range prompts {
		if strings.Contains(prompt, marker) {
			n++
		}
	}
	return n
}

func seedStore(t *testing.T, provider ai.AIProvider, texts ...string) storage.ChunkRepository {
	t.Helper()

	repo, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	if len(texts) == 0 {
		return repo
	}

	vectors, err := provider.Embedder().EmbedTexts(context.Background(), texts)
	require.NoError(t, err)

	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{Document: "corpus.txt", Index: i, Text: text, Vector: vectors[i]}
	}
	_, err = repo.AddChunks(context.Background(), chunks...)
	require.NoError(t, err)

	return repo
}

func newTestPipeline(t *testing.T, repo storage.ChunkRepository, provider ai.AIProvider, config *Config) *Pipeline {
	t.Helper()
	p, err := NewPipeline(repo, provider, config)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipelineRequiresDependencies(t *testing.T) {
	provider := mock.NewMockProvider()

	_, err := NewPipeline(nil, provider, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	repo := seedStore(t, provider)
	_, err = NewPipeline(repo, nil, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	bad := DefaultConfig()
	bad.MaxIterations = 0
	_, err = NewPipeline(repo, provider, bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunRejectsEmptyQuery(t *testing.T) {
	provider := mock.NewMockProvider()
	p := newTestPipeline(t, seedStore(t, provider), provider, nil)

	_, err := p.Run(context.Background(), "   ", "", nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRunOnDomainQuery(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()
	completer.CompleteFunc = stageReplies{
		classifier: "YES",
		expander:   `["residency requirements for naturalization", "continuous residence exceptions"]`,
		answerer:   "Applicants must reside continuously for five years.",
		gate:       `{"key_points": ["five year rule"], "knowledge_gaps": [], "new_queries": [], "search_complete": true, "reasoning": "sufficient"}`,
		outline:    "# OUTLINE",
		synthesis:  "<think>drafting</think>Naturalization requires five years of continuous residence.",
	}.route

	repo := seedStore(t, provider,
		"An applicant for naturalization must reside continuously in the United States for five years.",
		"Absences of six months or more may break continuous residence.",
	)
	p := newTestPipeline(t, repo, provider, nil)

	result, err := p.Run(context.Background(), "What are naturalization residency requirements?", "", nil)
	require.NoError(t, err)

	// Reasoning markup is stripped from the synthesizer's reply.
	assert.Equal(t, "Naturalization requires five years of continuous residence.", result.Answer)

	prompts := completer.Prompts()
	assert.Equal(t, 1, countStageCalls(prompts, markClassifier))
	assert.Equal(t, 1, countStageCalls(prompts, markExpander))
	assert.Equal(t, 2, countStageCalls(prompts, markAnswerer))
	assert.Equal(t, 1, countStageCalls(prompts, markGate))
	assert.Equal(t, 1, countStageCalls(prompts, markOutline))
	assert.Equal(t, 1, countStageCalls(prompts, markSynthesis))
	assert.Equal(t, 0, countStageCalls(prompts, markDirect))

	assert.NotEmpty(t, result.Trace.Events())
}

func TestRunOffDomainQuery(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()
	completer.CompleteFunc = stageReplies{
		classifier: "NO",
		direct:     "<think>off topic</think>I can only help with immigration questions.",
	}.route

	p := newTestPipeline(t, seedStore(t, provider), provider, nil)

	result, err := p.Run(context.Background(), "What's a good pizza recipe?", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "I can only help with immigration questions.", result.Answer)

	prompts := completer.Prompts()
	assert.Equal(t, 1, countStageCalls(prompts, markClassifier))
	assert.Equal(t, 1, countStageCalls(prompts, markDirect))
	assert.Equal(t, 0, countStageCalls(prompts, markExpander))
	assert.Equal(t, 0, countStageCalls(prompts, markAnswerer))
	assert.Equal(t, 0, countStageCalls(prompts, markGate))
	assert.Equal(t, 0, countStageCalls(prompts, markOutline))
	assert.Equal(t, 0, countStageCalls(prompts, markSynthesis))
}

func TestRunEmptyStoreUsesSentinelAnswers(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()

	var gatePrompt string
	var mu sync.Mutex
	replies := stageReplies{
		classifier: "YES",
		expander:   `["sub one", "sub two", "sub three"]`,
		gate:       `{"search_complete": true, "new_queries": []}`,
		outline:    "# OUTLINE",
		synthesis:  "final",
	}
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, markGate) {
			mu.Lock()
			gatePrompt = prompt
			mu.Unlock()
		}
		return replies.route(ctx, prompt)
	}

	// No chunks seeded: every retrieval comes back empty.
	p := newTestPipeline(t, seedStore(t, provider), provider, nil)

	result, err := p.Run(context.Background(), "asylum eligibility", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "final", result.Answer)

	// The answerer never reached the completion gateway.
	assert.Equal(t, 0, countStageCalls(completer.Prompts(), markAnswerer))

	// All three sentinel answers were handed to the quality gate.
	assert.Equal(t, 3, strings.Count(gatePrompt, NoRelevantInformation))
}

func TestRunStopsAfterMaxIterations(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()
	completer.CompleteFunc = stageReplies{
		classifier: "YES",
		expander:   `["initial question"]`,
		answerer:   "partial information",
		gate:       `{"search_complete": false, "new_queries": ["follow-up question"], "knowledge_gaps": ["gap"]}`,
		outline:    "# OUTLINE",
		synthesis:  "final answer",
	}.route

	repo := seedStore(t, provider, "some immigration text")
	p := newTestPipeline(t, repo, provider, nil)

	result, err := p.Run(context.Background(), "green card timeline", "", nil)
	require.NoError(t, err)

	// Rejected every round: exactly MaxIterations gate calls, then a
	// final answer anyway.
	assert.Equal(t, 3, countStageCalls(completer.Prompts(), markGate))
	assert.Equal(t, "final answer", result.Answer)
}

func TestRunRecordsProposedQueriesAsGaps(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()

	var mu sync.Mutex
	var gatePrompts []string
	replies := stageReplies{
		classifier: "YES",
		expander:   `["first question"]`,
		answerer:   "partial information",
		outline:    "# OUTLINE",
		synthesis:  "final",
	}
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, markGate) {
			mu.Lock()
			gatePrompts = append(gatePrompts, prompt)
			round := len(gatePrompts)
			mu.Unlock()
			if round == 1 {
				return `{"search_complete": false, "new_queries": ["proposed follow-up query"], "knowledge_gaps": ["missing fee details"]}`, nil
			}
			return `{"search_complete": true, "new_queries": []}`, nil
		}
		return replies.route(ctx, prompt)
	}

	repo := seedStore(t, provider, "some immigration text")
	p := newTestPipeline(t, repo, provider, nil)

	_, err := p.Run(context.Background(), "green card timeline", "", nil)
	require.NoError(t, err)
	require.Len(t, gatePrompts, 2)

	// The gap set accumulates the queries proposed in earlier rounds,
	// not the verdict's gap descriptions.
	assert.NotContains(t, gatePrompts[0], "proposed follow-up query")
	assert.Contains(t, gatePrompts[1], "proposed follow-up query")
	assert.NotContains(t, gatePrompts[1], "missing fee details")
}

func TestRunKeepsAnswersAlignedWithQueries(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()

	var mu sync.Mutex
	var gatePrompts []string
	replies := stageReplies{
		classifier: "YES",
		expander:   `["initial question"]`,
		answerer:   "aligned answer",
		gate:       `{"search_complete": false, "new_queries": ["follow-up one", "follow-up two"]}`,
		outline:    "# OUTLINE",
		synthesis:  "final",
	}
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, markGate) {
			mu.Lock()
			gatePrompts = append(gatePrompts, prompt)
			mu.Unlock()
		}
		return replies.route(ctx, prompt)
	}

	repo := seedStore(t, provider, "some immigration text")
	p := newTestPipeline(t, repo, provider, nil)

	_, err := p.Run(context.Background(), "asylum filing deadline", "", nil)
	require.NoError(t, err)
	require.Len(t, gatePrompts, 3)

	// Every round re-answers the full current query list, so the gate
	// sees one answer per sub-query: one for the initial expansion, two
	// once the replacement pair is swapped in.
	assert.Equal(t, 1, strings.Count(gatePrompts[0], "aligned answer"))
	assert.Equal(t, 2, strings.Count(gatePrompts[1], "aligned answer"))
	assert.Equal(t, 2, strings.Count(gatePrompts[2], "aligned answer"))
	assert.Equal(t, 5, countStageCalls(completer.Prompts(), markAnswerer))
}

func TestRunExpanderFallback(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()
	completer.CompleteFunc = stageReplies{
		classifier: "YES",
		expander:   "I cannot produce JSON right now, sorry.",
		answerer:   "grounded answer",
		gate:       `{"search_complete": true, "new_queries": []}`,
		outline:    "# OUTLINE",
		synthesis:  "done",
	}.route

	const query = "visa overstay consequences"
	repo := seedStore(t, provider, "overstaying a visa may trigger reentry bars")
	p := newTestPipeline(t, repo, provider, nil)

	result, err := p.Run(context.Background(), query, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "done", result.Answer)

	// Expansion fell back to the original query: exactly one grounded
	// answer call, and its prompt carries the original query.
	prompts := completer.Prompts()
	assert.Equal(t, 1, countStageCalls(prompts, markAnswerer))
	for _, prompt := range prompts {
		if strings.Contains(prompt, markAnswerer) {
			assert.Contains(t, prompt, query)
		}
	}
}

func TestRunSynthesisFallback(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()

	upstream := &ai.UpstreamError{Op: "complete", Err: assert.AnError}
	replies := stageReplies{
		classifier: "YES",
		expander:   `["single question"]`,
		answerer:   "the grounded answer",
		gate:       `{"search_complete": true, "new_queries": []}`,
		outline:    "the outline",
	}
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, markSynthesis) {
			return "", upstream
		}
		return replies.route(ctx, prompt)
	}

	repo := seedStore(t, provider, "relevant text")
	p := newTestPipeline(t, repo, provider, nil)

	result, err := p.Run(context.Background(), "work permit rules", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "the outline\n\nthe grounded answer", result.Answer)
}

func TestRunOutlineFallback(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()

	upstream := &ai.UpstreamError{Op: "complete", Err: assert.AnError}
	replies := stageReplies{
		classifier: "YES",
		expander:   `["single question"]`,
		answerer:   "the grounded answer",
		gate:       `{"search_complete": true, "new_queries": []}`,
		synthesis:  "synthesized despite missing outline",
	}
	var sawPlaceholder bool
	var mu sync.Mutex
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, markOutline) {
			return "", upstream
		}
		if strings.Contains(prompt, markSynthesis) && strings.Contains(prompt, outlineUnavailable) {
			mu.Lock()
			sawPlaceholder = true
			mu.Unlock()
		}
		return replies.route(ctx, prompt)
	}

	repo := seedStore(t, provider, "relevant text")
	p := newTestPipeline(t, repo, provider, nil)

	result, err := p.Run(context.Background(), "adjustment of status", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "synthesized despite missing outline", result.Answer)
	assert.True(t, sawPlaceholder, "synthesis should receive the outline placeholder")
}

func TestRunClassifierFailsClosed(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()

	upstream := &ai.UpstreamError{Op: "complete", Err: assert.AnError}
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, markClassifier) {
			return "", upstream
		}
		return "best-effort direct reply", nil
	}

	p := newTestPipeline(t, seedStore(t, provider), provider, nil)

	result, err := p.Run(context.Background(), "anything at all", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "best-effort direct reply", result.Answer)
	assert.Equal(t, 0, countStageCalls(completer.Prompts(), markExpander))
}

func TestRunReportsProgress(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockCompleter().CompleteFunc = stageReplies{
		classifier: "YES",
		expander:   `["q1"]`,
		answerer:   "a1",
		gate:       `{"search_complete": true, "new_queries": []}`,
		outline:    "# OUTLINE",
		synthesis:  "final",
	}.route

	repo := seedStore(t, provider, "text")
	p := newTestPipeline(t, repo, provider, nil)

	var fractions []float64
	monitor := MonitorFunc(func(fraction float64, label string) {
		fractions = append(fractions, fraction)
		assert.NotEmpty(t, label)
	})

	_, err := p.Run(context.Background(), "question", "", monitor)
	require.NoError(t, err)

	require.NotEmpty(t, fractions)
	assert.Equal(t, 0.01, fractions[0])
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
}

func TestRunPassesConversationContext(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()
	completer.CompleteFunc = stageReplies{
		classifier: "NO",
		direct:     "contextual reply",
	}.route

	p := newTestPipeline(t, seedStore(t, provider), provider, nil)

	history := "Q1: What is an I-130?\nA1: A family petition form."
	_, err := p.Run(context.Background(), "how long does it take?", history, nil)
	require.NoError(t, err)

	for _, prompt := range completer.Prompts() {
		assert.Contains(t, prompt, history)
	}
}
