package server

// AskRequest is the payload for POST /api/ask.
type AskRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

// AskResponse carries the pipeline's answer and the session identifier
// to pass back on follow-up questions.
type AskResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// UploadRequest is the payload for POST /api/documents.
type UploadRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// UploadResponse reports the result of an ingestion.
type UploadResponse struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// DocumentResponse describes one ingested document.
type DocumentResponse struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// SearchResponse is one similarity-search hit.
type SearchResponse struct {
	Document string  `json:"document"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
}

// ErrorResponse carries an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
