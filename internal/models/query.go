package models

import (
	"fmt"
	"strings"
)

const (
	// DefaultTopK is the number of matches returned when a request does not ask
	// for more.
	DefaultTopK = 1
	// MaxTopK caps how many matches a single request may ask for.
	MaxTopK = 20
)

// QueryRequest represents an end-user question posted to the query endpoint.
type QueryRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k,omitempty"`
}

// Validate ensures the request has a non-blank question and normalizes TopK.
// TopK values of zero or below become DefaultTopK; values above MaxTopK are capped.
func (q *QueryRequest) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK > MaxTopK {
		q.TopK = MaxTopK
	}
	return nil
}

// ImportRequest asks the server to load a corpus file into storage and the indexes.
type ImportRequest struct {
	FilePath      string `json:"file_path"`
	ClearExisting bool   `json:"clear_existing,omitempty"`
}

// Validate ensures the import request names a file.
func (r *ImportRequest) Validate() error {
	if strings.TrimSpace(r.FilePath) == "" {
		return fmt.Errorf("file_path cannot be empty")
	}
	return nil
}
