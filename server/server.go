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


// Package server exposes the assistant over a JSON HTTP API.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/NamNhiBinhHipHop/immi-law/ai"
	"github.com/NamNhiBinhHipHop/immi-law/deepsearch"
	"github.com/NamNhiBinhHipHop/immi-law/ingest"
	"github.com/NamNhiBinhHipHop/immi-law/storage"
	"github.com/gin-gonic/gin"
)

// Server wires the deep-search and ingestion pipelines into HTTP routes.
type Server struct {
	engine     *gin.Engine
	pipeline   *deepsearch.Pipeline
	ingestor   *ingest.Pipeline
	repository storage.ChunkRepository
	embedder   ai.Embedder
	sessions   *sessionStore
	logger     *slog.Logger
}

// NewServer creates a server around the given pipelines and store.
// The embedder backs the raw similarity-search endpoint.
func NewServer(pipeline *deepsearch.Pipeline, ingestor *ingest.Pipeline, repository storage.ChunkRepository, embedder ai.Embedder) (*Server, error) {
	if pipeline == nil {
		return nil, errors.New("deep-search pipeline is required")
	}
	if ingestor == nil {
		return nil, errors.New("ingest pipeline is required")
	}
	if repository == nil {
		return nil, errors.New("chunk repository is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		pipeline:   pipeline,
		ingestor:   ingestor,
		repository: repository,
		embedder:   embedder,
		sessions:   newSessionStore(),
		logger:     slog.Default().With("component", "server"),
	}
	s.registerRoutes()

	return s, nil
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the HTTP server on host:port until it fails.
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.logger.Info("starting HTTP server", "addr", addr)
	return s.engine.Run(addr)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.GET("/search", s.handleSearch)
	api.POST("/documents", s.handleUpload)
	api.GET("/documents", s.handleListDocuments)
	api.DELETE("/documents", s.handleDeleteAllDocuments)
	api.DELETE("/documents/:name", s.handleDeleteDocument)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	sessionID, history := s.sessions.history(req.SessionID)

	result, err := s.pipeline.Run(c.Request.Context(), req.Query, history, nil)
	if err != nil {
		s.logger.Error("pipeline run failed", "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	s.sessions.record(sessionID, req.Query, result.Answer)

	c.JSON(http.StatusOK, AskResponse{
		Answer:    result.Answer,
		SessionID: sessionID,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query parameter q is required"})
		return
	}

	vector, err := s.embedder.EmbedText(c.Request.Context(), query)
	if err != nil {
		s.logger.Error("embedding failed", "err", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}

	results, err := s.repository.FindSimilar(c.Request.Context(), vector, 0, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]SearchResponse, len(results))
	for i, result := range results {
		out[i] = SearchResponse{
			Document: result.Chunk.Document,
			Text:     result.Chunk.Text,
			Score:    result.Score,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleUpload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	chunks, err := s.ingestor.IngestDocument(c.Request.Context(), req.Name, req.Content)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyContent) || errors.Is(err, ingest.ErrEmptyDocumentName) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("ingestion failed", "document", req.Name, "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{Name: req.Name, Chunks: len(chunks)})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.repository.ListDocuments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		out[i] = DocumentResponse{Name: doc.Name, Chunks: doc.Chunks}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeleteAllDocuments(c *gin.Context) {
	if err := s.repository.DeleteAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	name := c.Param("name")

	err := s.repository.DeleteDocument(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
