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
	"regexp"
	"strings"
)

var (
	reasoningTagPattern = regexp.MustCompile(`(?is)<think>.*?</think>`)
	blankRunPattern     = regexp.MustCompile(`\n{3,}`)
)

// Clean strips reasoning markup from model output and normalizes
// whitespace. Paired <think>...</think> blocks are removed along with
// their contents, case-insensitively, and runs of blank lines collapse
// to one. Clean is idempotent.
func Clean(text string) string {
	// Removing a block can splice surrounding text into a new tag pair,
	// so strip repeatedly until the text stops changing.
	for {
		stripped := reasoningTagPattern.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
