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
	"fmt"
	"strings"
	"sync"
	"time"
)

// TraceEvent is a single timestamped pipeline event.
type TraceEvent struct {
	// Elapsed is the time since the pipeline invocation started.
	Elapsed time.Duration

	// Message describes the event.
	Message string
}

// Trace is an append-only log of events for one pipeline invocation.
// It is safe for concurrent use; each Run owns its own Trace.
type Trace struct {
	start  time.Time
	mu     sync.Mutex
	events []TraceEvent
}

func newTrace() *Trace {
	return &Trace{start: time.Now()}
}

// Add appends a formatted event to the trace.
func (t *Trace) Add(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, TraceEvent{
		Elapsed: time.Since(t.start),
		Message: fmt.Sprintf(format, args...),
	})
}

// Events returns a copy of all recorded events.
func (t *Trace) Events() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Elapsed returns the time since the invocation started.
func (t *Trace) Elapsed() time.Duration {
	return time.Since(t.start)
}

// String renders the trace one event per line.
func (t *Trace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	for _, event := range t.events {
		fmt.Fprintf(&b, "[%.2fs] %s\n", event.Elapsed.Seconds(), event.Message)
	}
	return b.String()
}
