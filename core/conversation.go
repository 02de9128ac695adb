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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConversationTurns is how many recent exchanges a conversation keeps.
const DefaultConversationTurns = 3

// Conversation is a bounded record of recent question/answer exchanges.
// Answers are expected to be stored pre-cleaned of reasoning markup.
// It is not safe for concurrent use; callers own their instance.
type Conversation struct {
	maxTurns  int
	exchanges []Exchange
}

// NewConversation creates a conversation bounded to maxTurns recent exchanges.
// A maxTurns <= 0 falls back to DefaultConversationTurns.
func NewConversation(maxTurns int) *Conversation {
	if maxTurns <= 0 {
		maxTurns = DefaultConversationTurns
	}
	return &Conversation{maxTurns: maxTurns}
}

// Add appends an exchange, evicting the oldest once the bound is reached.
func (c *Conversation) Add(question, answer string) {
	c.exchanges = append(c.exchanges, Exchange{Question: question, Answer: answer})
	if len(c.exchanges) > c.maxTurns {
		c.exchanges = c.exchanges[len(c.exchanges)-c.maxTurns:]
	}
}

// Len returns the number of retained exchanges.
func (c *Conversation) Len() int {
	return len(c.exchanges)
}

// Exchanges returns a copy of the retained exchanges, oldest first.
func (c *Conversation) Exchanges() []Exchange {
	out := make([]Exchange, len(c.exchanges))
	copy(out, c.exchanges)
	return out
}

// Render formats the retained exchanges as alternating "Q{n}: ..." and
// "A{n}: ..." lines. The result is passed verbatim into pipeline prompts
// so the model can disambiguate elliptical follow-up questions.
// Returns the empty string when no exchanges are retained.
func (c *Conversation) Render() string {
	if len(c.exchanges) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ex := range c.exchanges {
		fmt.Fprintf(&b, "Q%d: %s\n", i+1, ex.Question)
		fmt.Fprintf(&b, "A%d: %s\n", i+1, ex.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SaveFile persists the retained exchanges as JSON, creating parent
// directories as needed.
func (c *Conversation) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.exchanges, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFile restores exchanges from a JSON session file, keeping only the
// most recent maxTurns entries. A missing file leaves the conversation empty.
func (c *Conversation) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var exchanges []Exchange
	if err := json.Unmarshal(data, &exchanges); err != nil {
		return err
	}
	if len(exchanges) > c.maxTurns {
		exchanges = exchanges[len(exchanges)-c.maxTurns:]
	}
	c.exchanges = exchanges
	return nil
}
