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

// outlineUnavailable is the placeholder used when outline generation
// fails; synthesis still proceeds with it.
const outlineUnavailable = "(Outline unavailable due to error)"

// buildOutline turns the accepted Q/A pairs into a three-section outline
// (key points, direct-answer brief, detailed notes).
func (p *Pipeline) buildOutline(ctx context.Context, originalQuery string, subQueries, answers []string, history string, trace *Trace) string {
	outline, err := p.completer.Complete(ctx, buildOutlinePrompt(originalQuery, subQueries, answers, history))
	if err != nil {
		trace.Add("outline error, using placeholder: %v", err)
		return outlineUnavailable
	}

	trace.Add("outline generated")
	return strings.TrimSpace(outline)
}
