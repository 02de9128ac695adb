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
	"log/slog"
	"strings"

	"github.com/NamNhiBinhHipHop/immi-law/ai"
	"github.com/NamNhiBinhHipHop/immi-law/storage"
	"github.com/panjf2000/ants/v2"
)

// Pipeline runs the deep-search procedure end to end. A Pipeline is safe
// for concurrent Run calls; all per-invocation state lives on the stack
// of Run and in its Trace.
type Pipeline struct {
	completer  ai.Completer
	embedder   ai.Embedder
	repository storage.ChunkRepository
	config     *Config
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a deep-search pipeline.
// A nil config uses DefaultConfig.
func NewPipeline(repository storage.ChunkRepository, provider ai.AIProvider, config *Config, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(config.Concurrency)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		completer:  provider.Completer(),
		embedder:   provider.Embedder(),
		repository: repository,
		config:     config,
		pool:       pool,
		logger:     slog.Default().With("component", "deepsearch"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Result is the outcome of one pipeline invocation.
type Result struct {
	// Answer is the final cleaned answer text.
	Answer string

	// Trace records the timestamped events of this invocation.
	Trace *Trace
}

// Run executes the deep-search procedure for one query.
// conversationContext is the rendered prior exchanges ("Q1:/A1:" lines),
// empty for a fresh conversation. monitor may be nil.
func (p *Pipeline) Run(ctx context.Context, query, conversationContext string, monitor Monitor) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if monitor == nil {
		monitor = noopMonitor{}
	}

	trace := newTrace()
	trace.Add("deep search started")
	monitor.Progress(0.01, "Classifying query")

	if !p.classify(ctx, query, conversationContext, trace) {
		monitor.Progress(0.05, "Classifying query")
		answer := p.directAnswer(ctx, query, conversationContext, trace)
		trace.Add("total time: %.2fs", trace.Elapsed().Seconds())
		monitor.Progress(1.0, "Done")
		p.logger.Info("deep search finished on direct path", "elapsed", trace.Elapsed())
		return &Result{Answer: Clean(answer), Trace: trace}, nil
	}

	monitor.Progress(0.10, "Expanding queries")
	subQueries := p.expand(ctx, query, conversationContext, trace)

	var (
		answers       []string
		knowledgeGaps []string
	)

	for i := 0; i < p.config.MaxIterations; i++ {
		monitor.Progress(0.20+float64(i)*0.20, "Answering queries")
		answers = p.answerAll(ctx, subQueries, conversationContext, trace)

		monitor.Progress(0.30+float64(i)*0.20, "Checking answer quality")
		accepted, next := p.evaluate(ctx, subQueries, answers, query, i+1, knowledgeGaps, conversationContext, trace)
		if accepted {
			break
		}

		// The proposed queries themselves become the gaps shown to the
		// next gate round, so it never re-proposes a query already tried.
		knowledgeGaps = mergeGaps(knowledgeGaps, next)
		subQueries = next
	}

	monitor.Progress(0.80, "Writing outline")
	outline := p.buildOutline(ctx, query, subQueries, answers, conversationContext, trace)

	monitor.Progress(0.90, "Generating answer")
	finalAnswer := p.synthesize(ctx, query, subQueries, answers, outline, conversationContext, trace)

	trace.Add("total time: %.2fs", trace.Elapsed().Seconds())
	monitor.Progress(1.0, "Done")
	p.logger.Info("deep search finished", "elapsed", trace.Elapsed(), "subQueries", len(subQueries))

	return &Result{Answer: Clean(finalAnswer), Trace: trace}, nil
}

// Answer runs the pipeline and returns only the final answer text.
func (p *Pipeline) Answer(ctx context.Context, query, conversationContext string) (string, error) {
	result, err := p.Run(ctx, query, conversationContext, nil)
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

// directAnswer handles off-domain queries with a single completion call.
// If even that fails, the user gets an apology rather than an error.
func (p *Pipeline) directAnswer(ctx context.Context, query, history string, trace *Trace) string {
	trace.Add("using direct answer path")

	answer, err := p.completer.Complete(ctx, buildDirectAnswerPrompt(query, history))
	if err != nil {
		trace.Add("direct answer error: %v", err)
		return "I'm sorry, I couldn't process your question right now. Please try again."
	}
	return answer
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
