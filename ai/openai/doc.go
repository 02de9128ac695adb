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


// Package openai implements the ai interfaces using OpenAI-compatible APIs.
//
// It works with any service exposing the OpenAI chat-completions and
// embeddings endpoints: OpenAI itself, Ollama, LocalAI, vLLM, and others.
// Calls go through langchaingo clients; every transport or decode failure
// is mapped to *ai.UpstreamError and each call is bounded by the configured
// request timeout.
package openai
