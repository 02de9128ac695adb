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

import "fmt"

// Config holds the tuning knobs of the deep-search pipeline.
type Config struct {
	// MaxIterations bounds the answer/evaluate loop. The quality gate is
	// told the bound and instructed to declare the search complete on the
	// final round regardless of remaining gaps.
	MaxIterations int

	// SubQueryCount is the number of sub-queries requested from the
	// query expander.
	SubQueryCount int

	// RetrievalLimit is the maximum number of chunks retrieved per
	// sub-query.
	RetrievalLimit int

	// MinSimilarity filters retrieved chunks by similarity score.
	// Zero keeps everything the store returns.
	MinSimilarity float32

	// Concurrency is the number of sub-queries answered in parallel
	// within one round.
	Concurrency int
}

// DefaultConfig returns a Config with the standard pipeline parameters.
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:  3,
		SubQueryCount:  5,
		RetrievalLimit: 300,
		MinSimilarity:  0,
		Concurrency:    3,
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: MaxIterations must be at least 1", ErrInvalidConfig)
	}
	if c.SubQueryCount < 1 {
		return fmt.Errorf("%w: SubQueryCount must be at least 1", ErrInvalidConfig)
	}
	if c.RetrievalLimit < 1 {
		return fmt.Errorf("%w: RetrievalLimit must be at least 1", ErrInvalidConfig)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("%w: MinSimilarity must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: Concurrency must be at least 1", ErrInvalidConfig)
	}
	return nil
}
