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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringListPlain(t *testing.T) {
	items, err := parseStringList(`["a", "b", "c"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, items)
}

func TestParseStringListWrappedInProse(t *testing.T) {
	reply := "Here are the queries:\n```json\n[\"one\", \"two\"]\n```\nHope that helps!"
	items, err := parseStringList(reply)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, items)
}

func TestParseStringListMalformed(t *testing.T) {
	cases := []string{
		"no brackets at all",
		"[unquoted, items]",
		"]backwards[",
		"",
		`[1, 2, 3]`,
	}
	for _, in := range cases {
		_, err := parseStringList(in)
		assert.ErrorIs(t, err, ErrMalformedResponse, "input: %q", in)
	}
}

func TestParseObjectWrappedInProse(t *testing.T) {
	reply := `The verdict follows. {"search_complete": true, "new_queries": []} Done.`

	var verdict gateVerdict
	require.NoError(t, parseObject(reply, &verdict))
	assert.True(t, verdict.SearchComplete)
	assert.Empty(t, verdict.NewQueries)
}

func TestParseObjectMalformed(t *testing.T) {
	var verdict gateVerdict
	assert.ErrorIs(t, parseObject("not json", &verdict), ErrMalformedResponse)
	assert.ErrorIs(t, parseObject("{broken", &verdict), ErrMalformedResponse)
}
