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


package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationRender(t *testing.T) {
	t.Run("empty conversation renders empty string", func(t *testing.T) {
		conv := NewConversation(3)
		assert.Equal(t, "", conv.Render())
	})

	t.Run("renders numbered Q and A lines", func(t *testing.T) {
		conv := NewConversation(3)
		conv.Add("What is a green card?", "A permanent resident card.")
		conv.Add("How long is it valid?", "Ten years for most holders.")

		expected := "Q1: What is a green card?\n" +
			"A1: A permanent resident card.\n" +
			"Q2: How long is it valid?\n" +
			"A2: Ten years for most holders."
		assert.Equal(t, expected, conv.Render())
	})
}

func TestConversationBound(t *testing.T) {
	conv := NewConversation(2)
	conv.Add("q1", "a1")
	conv.Add("q2", "a2")
	conv.Add("q3", "a3")

	assert.Equal(t, 2, conv.Len())
	exchanges := conv.Exchanges()
	require.Len(t, exchanges, 2)
	assert.Equal(t, "q2", exchanges[0].Question)
	assert.Equal(t, "q3", exchanges[1].Question)
}

func TestConversationDefaultBound(t *testing.T) {
	conv := NewConversation(0)
	for i := 0; i < 10; i++ {
		conv.Add("q", "a")
	}
	assert.Equal(t, DefaultConversationTurns, conv.Len())
}

func TestConversationPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", "history.json")

	conv := NewConversation(3)
	conv.Add("What is naturalization?", "Becoming a citizen by application.")
	require.NoError(t, conv.SaveFile(path))

	restored := NewConversation(3)
	require.NoError(t, restored.LoadFile(path))
	assert.Equal(t, conv.Render(), restored.Render())

	t.Run("missing file leaves conversation empty", func(t *testing.T) {
		fresh := NewConversation(3)
		require.NoError(t, fresh.LoadFile(filepath.Join(t.TempDir(), "nope.json")))
		assert.Equal(t, 0, fresh.Len())
	})

	t.Run("load trims to bound", func(t *testing.T) {
		big := NewConversation(10)
		for i := 0; i < 6; i++ {
			big.Add("q", "a")
		}
		p := filepath.Join(t.TempDir(), "big.json")
		require.NoError(t, big.SaveFile(p))

		small := NewConversation(2)
		require.NoError(t, small.LoadFile(p))
		assert.Equal(t, 2, small.Len())
	})
}
