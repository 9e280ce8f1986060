// Package cli provides output formatting for the Swasth command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/swasth-ai/swasth/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// Stats is the corpus snapshot printed by the stats command.
type Stats struct {
	TotalFAQs    int64            `json:"total_faqs"`
	TotalQueries int64            `json:"total_queries"`
	TotalImports int64            `json:"total_imports"`
	MatchingMode string           `json:"matching_mode"`
	IndexSize    int              `json:"index_size"`
	Languages    map[string]int64 `json:"languages"`
}

// WriteAnswer writes a query response to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteAnswer(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeAnswerText(w, response)
		return nil
	}
}

func writeAnswerText(w io.Writer, response *models.QueryResponse) {
	fmt.Fprintf(w, "\n%s\n", response.Answer)
	if response.SourceID == nil {
		fmt.Fprintf(w, "\nNo match (detected language: %s)\n", response.DetectedLanguage)
		return
	}
	fmt.Fprintf(w, "\nSource: FAQ #%d | Score: %.4f | Language: %s\n",
		*response.SourceID, response.Score, response.DetectedLanguage)
	if response.Question != "" {
		fmt.Fprintf(w, "Matched question: %s\n", response.Question)
	}
	if len(response.Alternatives) > 0 {
		fmt.Fprintln(w, "\nOther close matches:")
		for i, alt := range response.Alternatives {
			fmt.Fprintf(w, "  %d. [%.4f] FAQ #%d: %s\n",
				i+2, alt.Score, alt.SourceID, Truncate(alt.Question, 80))
		}
	}
	fmt.Fprintln(w)
}

// WriteStats writes a corpus snapshot to w in the given format.
func WriteStats(w io.Writer, stats *Stats, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	default:
		writeStatsText(w, stats)
		return nil
	}
}

func writeStatsText(w io.Writer, stats *Stats) {
	fmt.Fprintf(w, "FAQs:          %d\n", stats.TotalFAQs)
	fmt.Fprintf(w, "Queries:       %d\n", stats.TotalQueries)
	fmt.Fprintf(w, "Imports:       %d\n", stats.TotalImports)
	fmt.Fprintf(w, "Matching mode: %s\n", stats.MatchingMode)
	fmt.Fprintf(w, "Index size:    %d\n", stats.IndexSize)
	if len(stats.Languages) > 0 {
		codes := make([]string, 0, len(stats.Languages))
		for code := range stats.Languages {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		fmt.Fprintf(w, "Languages:")
		for _, code := range codes {
			fmt.Fprintf(w, " %s=%d", code, stats.Languages[code])
		}
		fmt.Fprintln(w)
	}
}

// PrintAnswer prints a query response to stdout in text format.
func PrintAnswer(response *models.QueryResponse) {
	_ = WriteAnswer(os.Stdout, response, OutputText)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
