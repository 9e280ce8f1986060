package models

// Answer is one ranked FAQ match.
type Answer struct {
	SourceID int64   `json:"source_id"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}

// QueryResponse is the response for a query request.
// SourceID is nil and Answer carries the configured no-match message when the
// corpus produced nothing; callers must treat that as "no match", not an error.
type QueryResponse struct {
	Answer           string  `json:"answer"`
	Question         string  `json:"question,omitempty"`
	SourceID         *int64  `json:"source_id"`
	Score            float64 `json:"score"`
	DetectedLanguage string  `json:"detected_language"`
	// Alternatives holds the matches after the best one when top_k > 1 was requested.
	Alternatives []Answer `json:"alternatives,omitempty"`
}

// ImportResponse is the response for an import request.
type ImportResponse struct {
	ImportID string `json:"import_id"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Total    int    `json:"total_faqs"`
	Message  string `json:"message"`
}
