package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/swasth-ai/swasth/internal/models"
)

// parseCSV reads question/answer rows from CSV content. The first row is a
// header naming the columns; question and answer are required, language is
// optional. Rows with an empty question or answer are counted as skipped.
func parseCSV(content []byte, defaultLanguage string) ([]*models.FaqEntry, int, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("corpus file is empty")
	}
	if err != nil {
		return nil, 0, err
	}
	cols, err := columnIndexes(header)
	if err != nil {
		return nil, 0, err
	}

	var faqs []*models.FaqEntry
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		faq, ok := rowToFAQ(row, cols, defaultLanguage)
		if !ok {
			skipped++
			continue
		}
		faqs = append(faqs, faq)
	}
	return faqs, skipped, nil
}

// columns maps lowercased header names to their positions.
type columns struct {
	question int
	answer   int
	language int
}

func columnIndexes(header []string) (columns, error) {
	cols := columns{question: -1, answer: -1, language: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "question":
			cols.question = i
		case "answer":
			cols.answer = i
		case "language":
			cols.language = i
		}
	}
	if cols.question < 0 || cols.answer < 0 {
		return cols, fmt.Errorf("corpus header must include question and answer columns, got %v", header)
	}
	return cols, nil
}

func rowToFAQ(row []string, cols columns, defaultLanguage string) (*models.FaqEntry, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	question := field(cols.question)
	answer := field(cols.answer)
	if question == "" || answer == "" {
		return nil, false
	}
	language := field(cols.language)
	if language == "" {
		language = defaultLanguage
	}
	return &models.FaqEntry{Question: question, Answer: answer, Language: language}, true
}
