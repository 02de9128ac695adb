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

// classify decides whether a query is in the supported legal domain.
// The verdict is read from the tail of the reply so models that reason
// before answering still classify correctly. Upstream failures are
// fail-closed: the query is treated as off-domain and answered directly.
func (p *Pipeline) classify(ctx context.Context, query, history string, trace *Trace) bool {
	reply, err := p.completer.Complete(ctx, buildClassifierPrompt(query, history))
	if err != nil {
		trace.Add("classification error, treating as off-domain: %v", err)
		return false
	}

	verdict := strings.ToUpper(strings.TrimSpace(reply))
	trace.Add("classified query: %s", verdict)
	return strings.HasSuffix(verdict, "YES")
}
