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


package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/NamNhiBinhHipHop/immi-law/core"
)

// sessionStore keeps per-session conversation memory behind its own
// lock, since core.Conversation is not safe for concurrent use.
// Conversations are bounded, so memory per session stays constant.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*core.Conversation
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*core.Conversation)}
}

// history returns the rendered conversation for id, creating a new
// session when id is empty or unknown. The returned id identifies the
// session from now on.
func (s *sessionStore) history(id string) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if conv, ok := s.sessions[id]; ok {
			return id, conv.Render()
		}
	}

	id = newSessionID()
	s.sessions[id] = core.NewConversation(core.DefaultConversationTurns)
	return id, ""
}

// record appends an exchange to the identified session.
// Unknown sessions are ignored.
func (s *sessionStore) record(id, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.sessions[id]; ok {
		conv.Add(question, answer)
	}
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// The platform RNG failing is unrecoverable.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
