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


package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates no usable endpoint or model is configured.
	// It is the one AI failure that propagates to the caller: without a
	// working completion capability no fallback can produce an answer.
	ErrNotConfigured = errors.New("ai service not configured")

	// ErrEmptyReply indicates the model returned no choices.
	ErrEmptyReply = errors.New("model returned an empty reply")
)

// UpstreamError reports a failed call to a remote AI service: the endpoint
// was unreachable, returned a non-success status, timed out, or produced a
// malformed response. Callers catch it and substitute their documented
// fallback value.
type UpstreamError struct {
	// Op names the operation that failed, e.g. "complete" or "embed".
	Op string
	// Err is the underlying cause.
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
