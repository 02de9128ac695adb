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


// Package config loads and persists the application configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/NamNhiBinhHipHop/immi-law/ai"
	"github.com/NamNhiBinhHipHop/immi-law/deepsearch"
	"gopkg.in/yaml.v3"
)

// AIConfig holds the OpenAI-compatible endpoint settings.
// The API token is read from the environment variable named by TokenEnv.
type AIConfig struct {
	CompletionHost  string `yaml:"completion_host"`
	EmbeddingHost   string `yaml:"embedding_host"`
	CompletionModel string `yaml:"completion_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	TokenEnv        string `yaml:"token_env"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// PipelineConfig tunes the deep-search loop.
type PipelineConfig struct {
	MaxIterations  int     `yaml:"max_iterations"`
	SubQueryCount  int     `yaml:"sub_query_count"`
	RetrievalLimit int     `yaml:"retrieval_limit"`
	MinSimilarity  float32 `yaml:"min_similarity"`
	Concurrency    int     `yaml:"concurrency"`
}

// IngestConfig tunes document chunking and embedding.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	PoolSize     int `yaml:"pool_size"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	StorePath string         `yaml:"store_path"`
	AI        AIConfig       `yaml:"ai"`
	Pipeline  PipelineConfig `yaml:"pipeline"`
	Ingest    IngestConfig   `yaml:"ingest"`
	Server    ServerConfig   `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./immilaw.yaml first, then ~/.config/immilaw/config.yaml.
// If neither exists, it writes defaults to ~/.config/immilaw/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "immilaw.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AIConfig converts the endpoint settings into an ai.Config, resolving
// the token from the environment.
func (c *AppConfig) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithCompletionHost(c.AI.CompletionHost),
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithCompletionModel(c.AI.CompletionModel),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
	}
	if c.AI.TokenEnv != "" {
		if token := os.Getenv(c.AI.TokenEnv); token != "" {
			opts = append(opts, ai.WithToken(token))
		}
	}
	if c.AI.TimeoutSecs > 0 {
		opts = append(opts, ai.WithRequestTimeout(time.Duration(c.AI.TimeoutSecs)*time.Second))
	}
	return ai.NewConfig(opts...)
}

// PipelineConfig converts the loop settings into a deepsearch.Config.
func (c *AppConfig) PipelineConfig() *deepsearch.Config {
	return &deepsearch.Config{
		MaxIterations:  c.Pipeline.MaxIterations,
		SubQueryCount:  c.Pipeline.SubQueryCount,
		RetrievalLimit: c.Pipeline.RetrievalLimit,
		MinSimilarity:  c.Pipeline.MinSimilarity,
		Concurrency:    c.Pipeline.Concurrency,
	}
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "immilaw", "config.yaml"), nil
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "immilaw.db"
	}
	return filepath.Join(home, ".immilaw", "db")
}

func defaultConfig() *AppConfig {
	aiDefaults := ai.DefaultConfig()
	pipelineDefaults := deepsearch.DefaultConfig()

	return &AppConfig{
		StorePath: defaultStorePath(),
		AI: AIConfig{
			CompletionHost:  aiDefaults.CompletionHost,
			EmbeddingHost:   aiDefaults.EmbeddingHost,
			CompletionModel: aiDefaults.CompletionModel,
			EmbeddingModel:  aiDefaults.EmbeddingModel,
			TokenEnv:        "IMMILAW_API_TOKEN",
			TimeoutSecs:     int(aiDefaults.RequestTimeout / time.Second),
		},
		Pipeline: PipelineConfig{
			MaxIterations:  pipelineDefaults.MaxIterations,
			SubQueryCount:  pipelineDefaults.SubQueryCount,
			RetrievalLimit: pipelineDefaults.RetrievalLimit,
			MinSimilarity:  pipelineDefaults.MinSimilarity,
			Concurrency:    pipelineDefaults.Concurrency,
		},
		Ingest: IngestConfig{
			ChunkSize:    300,
			ChunkOverlap: 50,
			PoolSize:     0, // 0 = auto
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	defaults := defaultConfig()

	if cfg.StorePath == "" {
		cfg.StorePath = defaults.StorePath
	}
	if cfg.AI.CompletionHost == "" {
		cfg.AI.CompletionHost = defaults.AI.CompletionHost
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = defaults.AI.EmbeddingHost
	}
	if cfg.AI.CompletionModel == "" {
		cfg.AI.CompletionModel = defaults.AI.CompletionModel
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = defaults.AI.EmbeddingModel
	}
	if cfg.AI.TokenEnv == "" {
		cfg.AI.TokenEnv = defaults.AI.TokenEnv
	}
	if cfg.AI.TimeoutSecs == 0 {
		cfg.AI.TimeoutSecs = defaults.AI.TimeoutSecs
	}
	if cfg.Pipeline.MaxIterations == 0 {
		cfg.Pipeline.MaxIterations = defaults.Pipeline.MaxIterations
	}
	if cfg.Pipeline.SubQueryCount == 0 {
		cfg.Pipeline.SubQueryCount = defaults.Pipeline.SubQueryCount
	}
	if cfg.Pipeline.RetrievalLimit == 0 {
		cfg.Pipeline.RetrievalLimit = defaults.Pipeline.RetrievalLimit
	}
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = defaults.Pipeline.Concurrency
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = defaults.Ingest.ChunkSize
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = defaults.Ingest.ChunkOverlap
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
}
