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
	"encoding/json"
	"fmt"
	"strings"
)

// sliceSpan extracts the substring from the first open delimiter to the
// last close delimiter, inclusive. Model replies routinely wrap JSON in
// prose or code fences; this recovers the payload.
func sliceSpan(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// parseStringList extracts and parses a JSON array of strings from a raw
// model reply. Returns ErrMalformedResponse if no valid array of strings
// is present.
func parseStringList(reply string) ([]string, error) {
	span, ok := sliceSpan(strings.TrimSpace(reply), '[', ']')
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array found", ErrMalformedResponse)
	}

	var items []string
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return items, nil
}

// parseObject extracts and parses a JSON object from a raw model reply
// into v. Returns ErrMalformedResponse if no valid object is present.
func parseObject(reply string, v any) error {
	span, ok := sliceSpan(strings.TrimSpace(reply), '{', '}')
	if !ok {
		return fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
