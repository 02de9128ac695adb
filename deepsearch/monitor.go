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

// Monitor observes pipeline progress. It is advisory instrumentation:
// the pipeline never depends on a monitor for control flow.
type Monitor interface {
	// Progress reports a completion fraction in [0, 1] and a short label
	// describing the current stage.
	Progress(fraction float64, label string)
}

// MonitorFunc adapts a function to the Monitor interface.
type MonitorFunc func(fraction float64, label string)

// Progress calls the wrapped function.
func (f MonitorFunc) Progress(fraction float64, label string) {
	f(fraction, label)
}

// noopMonitor discards all progress events.
type noopMonitor struct{}

func (noopMonitor) Progress(float64, string) {}
