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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NamNhiBinhHipHop/immi-law/ai/mock"
	"github.com/NamNhiBinhHipHop/immi-law/deepsearch"
	"github.com/NamNhiBinhHipHop/immi-law/ingest"
	badgerstore "github.com/NamNhiBinhHipHop/immi-law/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routeReplies makes the mock completer behave as a compliant model for
// every pipeline stage.
func routeReplies(answer string) func(ctx context.Context, prompt string) (string, error) {
	return func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "expert classifier"):
			return "YES", nil
		case strings.Contains(prompt, "query expansion expert"):
			return `["expanded question"]`, nil
		case strings.Contains(prompt, "legal reasoning agent"):
			return `{"search_complete": true, "new_queries": []}`, nil
		case strings.Contains(prompt, "outline creator"):
			return "# OUTLINE", nil
		case strings.Contains(prompt, "expert content writer"):
			return answer, nil
		}
		return "grounded reply", nil
	}
}

func newTestServer(t *testing.T, answer string) (*Server, *mock.MockProvider) {
	t.Helper()

	repo, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockCompleter().CompleteFunc = routeReplies(answer)

	pipeline, err := deepsearch.NewPipeline(repo, provider, nil)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	ingestor, err := ingest.NewPipeline(repo, provider)
	require.NoError(t, err)
	t.Cleanup(ingestor.Release)

	srv, err := NewServer(pipeline, ingestor, repo, provider.Embedder())
	require.NoError(t, err)

	return srv, provider
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "answer")

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAskReturnsAnswerAndSession(t *testing.T) {
	srv, _ := newTestServer(t, "the final answer")

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", AskRequest{Query: "naturalization timeline?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the final answer", resp.Answer)
	assert.NotEmpty(t, resp.SessionID)
}

func TestAskCarriesConversationAcrossRequests(t *testing.T) {
	srv, provider := newTestServer(t, "first answer")

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", AskRequest{Query: "what is an I-130?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var first AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	provider.GetMockCompleter().Reset()
	provider.GetMockCompleter().CompleteFunc = routeReplies("second answer")

	rec = doJSON(t, srv, http.MethodPost, "/api/ask", AskRequest{
		Query:     "how long does it take?",
		SessionID: first.SessionID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var second AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.SessionID, second.SessionID)

	// The follow-up prompts must carry the first exchange.
	found := false
	for _, prompt := range provider.GetMockCompleter().Prompts() {
		if strings.Contains(prompt, "Q1: what is an I-130?") &&
			strings.Contains(prompt, "A1: first answer") {
			found = true
			break
		}
	}
	assert.True(t, found, "conversation history missing from prompts")
}

func TestAskValidatesRequest(t *testing.T) {
	srv, _ := newTestServer(t, "answer")

	rec := doJSON(t, srv, http.MethodPost, "/api/ask", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, "answer")

	content := strings.Repeat("green card eligibility rules ", 20)
	rec := doJSON(t, srv, http.MethodPost, "/api/documents", UploadRequest{
		Name:    "rules.txt",
		Content: content,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var uploaded UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Equal(t, "rules.txt", uploaded.Name)
	assert.Greater(t, uploaded.Chunks, 0)

	rec = doJSON(t, srv, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "rules.txt", docs[0].Name)

	rec = doJSON(t, srv, http.MethodDelete, "/api/documents/rules.txt", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/documents/rules.txt", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAllDocuments(t *testing.T) {
	srv, _ := newTestServer(t, "answer")

	for _, name := range []string{"a.txt", "b.txt"} {
		rec := doJSON(t, srv, http.MethodPost, "/api/documents", UploadRequest{
			Name:    name,
			Content: "visa category overview",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, srv, http.MethodDelete, "/api/documents", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	assert.Empty(t, docs)
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "answer")

	rec := doJSON(t, srv, http.MethodPost, "/api/documents", UploadRequest{
		Name:    "doc.txt",
		Content: "asylum seekers must file within one year of arrival",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/search?q=%s", "asylum"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var hits []SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hits))
	require.NotEmpty(t, hits)
	assert.Equal(t, "doc.txt", hits[0].Document)
}

func TestSearchRequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t, "answer")

	rec := doJSON(t, srv, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
