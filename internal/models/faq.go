// Package models defines core data structures for FAQ entries, queries, and answers.
package models

import "time"

// FaqEntry is one question/answer pair of the corpus.
type FaqEntry struct {
	ID        int64     `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	Language  string    `json:"language" db:"language"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IndexText returns the text unit fed to indexing: the question and answer
// joined by a single space.
func (f *FaqEntry) IndexText() string {
	return f.Question + " " + f.Answer
}

// QueryLog records one answered (or unanswered) user query.
// MatchedFaqID is nil when the corpus produced no match.
type QueryLog struct {
	ID               int64     `json:"id" db:"id"`
	UserQuery        string    `json:"user_query" db:"user_query"`
	DetectedLanguage string    `json:"detected_language" db:"detected_language"`
	MatchedFaqID     *int64    `json:"matched_faq_id" db:"matched_faq_id"`
	ConfidenceScore  float64   `json:"confidence_score" db:"confidence_score"`
	IPAddress        string    `json:"ip_address" db:"ip_address"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ImportRecord is the audit row written after each corpus import.
type ImportRecord struct {
	ID        string    `json:"id" db:"id"`
	Source    string    `json:"source" db:"source"`
	Format    string    `json:"format" db:"format"`
	Imported  int       `json:"imported" db:"imported"`
	Skipped   int       `json:"skipped" db:"skipped"`
	Cleared   bool      `json:"cleared" db:"cleared"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
