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
)

// synthesize expands the outline into the final prose answer. On upstream
// failure it falls back to the outline followed by the raw sub-answers,
// so the caller always receives some answer.
func (p *Pipeline) synthesize(ctx context.Context, originalQuery string, subQueries, answers []string, outline, history string, trace *Trace) string {
	answer, err := p.completer.Complete(ctx, buildSynthesisPrompt(originalQuery, subQueries, answers, outline, history))
	if err != nil {
		trace.Add("synthesis error, falling back to outline and raw answers: %v", err)
		return outline + "\n\n" + strings.Join(answers, "\n\n")
	}

	trace.Add("final answer generated")
	return strings.TrimSpace(answer)
}
