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

import "errors"

var (
	// ErrRepositoryRequired indicates a nil chunk repository was provided.
	ErrRepositoryRequired = errors.New("chunk repository is required")

	// ErrAIProviderRequired indicates a nil AI provider was provided.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrEmptyQuery indicates an empty query was submitted.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrMalformedResponse indicates a model reply that does not contain
	// the expected structured format.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrInvalidConfig indicates invalid pipeline configuration.
	ErrInvalidConfig = errors.New("invalid pipeline configuration")
)
