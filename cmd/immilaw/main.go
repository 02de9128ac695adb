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


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	immilaw "github.com/NamNhiBinhHipHop/immi-law"
	"github.com/NamNhiBinhHipHop/immi-law/config"
	"github.com/NamNhiBinhHipHop/immi-law/deepsearch"
	"github.com/NamNhiBinhHipHop/immi-law/ingest"
	"github.com/NamNhiBinhHipHop/immi-law/reindex"
	"github.com/NamNhiBinhHipHop/immi-law/server"
	"github.com/NamNhiBinhHipHop/immi-law/tui"
)

// maxUploadBytes caps the size of a document accepted for ingestion.
const maxUploadBytes = 50 << 20

func main() {
	app := &cli.App{
		Name:  "immilaw",
		Usage: "Immigration-law document assistant with deep-search answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Answer a single question against the ingested corpus",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print the pipeline trace to stderr after answering",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Start an interactive chat session",
				Action: chatCommand,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Host to bind (overrides config)",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Port to bind (overrides config)",
					},
				},
			},
			{
				Name:      "upload",
				Usage:     "Ingest a .txt or .md document into the store",
				ArgsUsage: "<file> [file...]",
				Action:    uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Document name to store under (defaults to the file base name, single file only)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a raw similarity search against the store",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List ingested documents",
				Action: listCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and all its chunks",
				ArgsUsage: "<document>",
				Action:    deleteCommand,
			},
			{
				Name:   "delete-all",
				Usage:  "Delete every document in the store",
				Action: deleteAllCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every stored chunk with the configured embedding model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup loads .env if present and configures the default logger.
func setup(c *cli.Context) error {
	_ = godotenv.Load()

	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig resolves the application config from --config or the
// default search path.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		return cfg, nil
	}

	cfg, path, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Debug("loaded configuration", "path", path)
	return cfg, nil
}

// openAssistant opens the store and AI provider per the resolved config.
func openAssistant(c *cli.Context) (*immilaw.Assistant, *config.AppConfig, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	assistant, err := immilaw.Open(cfg.StorePath, immilaw.WithAIConfig(cfg.AIConfig()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store at %s: %w", cfg.StorePath, err)
	}
	return assistant, cfg, nil
}

// ingestOptions maps the ingest config section onto pipeline options.
func ingestOptions(cfg *config.AppConfig) []ingest.Option {
	opts := []ingest.Option{
		ingest.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
	}
	if cfg.Ingest.PoolSize > 0 {
		opts = append(opts, ingest.WithPoolSize(cfg.Ingest.PoolSize))
	}
	return opts
}

func askCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a question is required")
	}

	assistant, cfg, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	pipeline, err := assistant.NewPipeline(cfg.PipelineConfig())
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	monitor := deepsearch.MonitorFunc(func(fraction float64, label string) {
		fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", fraction*100, label)
	})

	result, err := pipeline.Run(c.Context, query, "", monitor)
	if err != nil {
		return fmt.Errorf("deep search failed: %w", err)
	}

	fmt.Println(result.Answer)

	if c.Bool("trace") {
		fmt.Fprintln(os.Stderr)
		fmt.Fprint(os.Stderr, result.Trace.String())
	}

	return nil
}

func chatCommand(c *cli.Context) error {
	assistant, cfg, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	pipeline, err := assistant.NewPipeline(cfg.PipelineConfig())
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	program := tea.NewProgram(tui.New(pipeline), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	assistant, cfg, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	pipeline, err := assistant.NewPipeline(cfg.PipelineConfig())
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	ingestor, err := assistant.NewIngestPipeline(ingestOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create ingest pipeline: %w", err)
	}
	defer ingestor.Release()

	srv, err := server.NewServer(pipeline, ingestor, assistant.ChunkRepository(), assistant.Provider().Embedder())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	host := cfg.Server.Host
	if c.IsSet("host") {
		host = c.String("host")
	}
	port := cfg.Server.Port
	if c.IsSet("port") {
		port = c.Int("port")
	}

	return srv.Start(host, port)
}

func uploadCommand(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	if c.String("name") != "" && len(files) > 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}

	assistant, cfg, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	ingestor, err := assistant.NewIngestPipeline(ingestOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create ingest pipeline: %w", err)
	}
	defer ingestor.Release()

	for _, file := range files {
		content, err := readDocumentFile(file)
		if err != nil {
			return err
		}

		name := c.String("name")
		if name == "" {
			name = filepath.Base(file)
		}

		chunks, err := ingestor.IngestDocument(c.Context, name, content)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", file, err)
		}
		fmt.Printf("Ingested %s: %d chunks\n", name, len(chunks))
	}

	return nil
}

// readDocumentFile reads an upload candidate, enforcing the supported
// extensions and the size cap.
func readDocumentFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
	default:
		return "", fmt.Errorf("unsupported file type %s: only .txt and .md are supported", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > maxUploadBytes {
		return "", fmt.Errorf("%s exceeds the %d MB upload limit", path, maxUploadBytes>>20)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	assistant, _, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	results, err := assistant.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching chunks found.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%.4f] %s #%d\n", i+1, result.Score, result.Chunk.Document, result.Chunk.Index)
		fmt.Printf("   %s\n", truncateText(result.Chunk.Text, 200))
	}

	return nil
}

func listCommand(c *cli.Context) error {
	assistant, _, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	docs, err := assistant.ChunkRepository().ListDocuments(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s\t%d chunks\n", doc.Name, doc.Chunks)
	}

	return nil
}

func deleteCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("a document name is required")
	}

	assistant, _, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	if err := assistant.ChunkRepository().DeleteDocument(c.Context, name); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	fmt.Printf("Deleted %s\n", name)
	return nil
}

func deleteAllCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		fmt.Print("This removes every ingested document. Type \"yes\" to continue: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(line) != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	assistant, _, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	if err := assistant.ChunkRepository().DeleteAll(c.Context); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	fmt.Println("All documents deleted.")
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	assistant, cfg, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer := assistant.NewReindexer(reindexConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Store: %s\n", cfg.StorePath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}

	return nil
}

func truncateText(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
