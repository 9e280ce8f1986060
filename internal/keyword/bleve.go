// Package keyword provides an in-memory Bleve index used to filter the FAQ listing.
package keyword

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/swasth-ai/swasth/internal/models"
)

// FAQResult is a single keyword filter hit.
type FAQResult struct {
	ID    int64
	Score float64
}

// faqDoc is the shape handed to Bleve for indexing.
type faqDoc struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Language string `json:"language"`
}

// FAQIndex is an in-memory Bleve index over the FAQ corpus. It backs the q=
// filter on the FAQ listing endpoint and is rebuilt whenever the corpus
// changes. SQLite remains the source of truth; this index is disposable.
type FAQIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewFAQIndex creates an empty in-memory index.
func NewFAQIndex() (*FAQIndex, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &FAQIndex{index: index}, nil
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries match
	// exact words across languages; English stemming would mangle Hindi and
	// Spanish questions.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("question", textFieldMapping)
	docMapping.AddFieldMappingsAt("answer", textFieldMapping)
	languageFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("language", languageFieldMapping)
	im.AddDocumentMapping("faq", docMapping)
	im.DefaultType = "faq"
	im.DefaultMapping = docMapping

	return im
}

// Rebuild replaces the index contents with the given FAQs. A fresh index is
// built off to the side and swapped in, so concurrent searches keep working
// against the old contents until the swap.
func (f *FAQIndex) Rebuild(ctx context.Context, faqs []models.FaqEntry) error {
	fresh, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return fmt.Errorf("failed to create Bleve index: %w", err)
	}

	batch := fresh.NewBatch()
	for i := range faqs {
		if err := ctx.Err(); err != nil {
			_ = fresh.Close()
			return err
		}
		doc := faqDoc{
			Question: faqs[i].Question,
			Answer:   faqs[i].Answer,
			Language: faqs[i].Language,
		}
		if err := batch.Index(strconv.FormatInt(faqs[i].ID, 10), doc); err != nil {
			_ = fresh.Close()
			return fmt.Errorf("failed to index faq %d: %w", faqs[i].ID, err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		_ = fresh.Close()
		return fmt.Errorf("failed to apply index batch: %w", err)
	}

	f.mu.Lock()
	old := f.index
	f.index = fresh
	f.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search runs a match query over question and answer text and returns up to
// limit hits. An empty query matches everything, so a language alone can be
// used as a filter. An optional language restricts results to FAQs in that
// language.
func (f *FAQIndex) Search(ctx context.Context, query, language string, limit int) ([]FAQResult, error) {
	f.mu.RLock()
	index := f.index
	f.mu.RUnlock()

	var q blevequery.Query
	if query == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		q = bleve.NewMatchQuery(query)
	}
	if language != "" {
		langQuery := bleve.NewTermQuery(language)
		langQuery.SetField("language")
		q = bleve.NewConjunctionQuery(q, langQuery)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]FAQResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, FAQResult{ID: id, Score: hit.Score})
	}
	return out, nil
}

// DocCount returns the number of indexed FAQs.
func (f *FAQIndex) DocCount() (uint64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.index.DocCount()
}

// Close closes the underlying Bleve index.
func (f *FAQIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index == nil {
		return nil
	}
	err := f.index.Close()
	f.index = nil
	return err
}
