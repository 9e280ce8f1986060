package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/swasth-ai/swasth/internal/config"
	"github.com/swasth-ai/swasth/internal/embedding"
	"github.com/swasth-ai/swasth/internal/engine"
	"github.com/swasth-ai/swasth/internal/importer"
	"github.com/swasth-ai/swasth/internal/keyword"
	"github.com/swasth-ai/swasth/internal/lang"
	"github.com/swasth-ai/swasth/internal/models"
	"github.com/swasth-ai/swasth/internal/server"
	"github.com/swasth-ai/swasth/internal/storage"
)

const e2eQueryTopK = 5

// startStack wires storage, engine, indexes, importer and the HTTP server the
// way main does, and returns the base URL of a running test server plus a
// scratch directory for corpus files. Rate limiting is off so the query test
// cases can run back to back. A nil factory selects the lexical matcher.
func startStack(t *testing.T, factory engine.EmbedderFactory) (string, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "faqs.db")
	cfg.Corpus.Path = filepath.Join(dir, "corpus.csv")
	off := false
	cfg.RateLimit.Enabled = &off

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	eng := engine.New(factory, lang.NewDetector(cfg.Corpus.DefaultLanguage), &cfg.Search, zap.NewNop())
	eng.Initialize(context.Background())
	t.Cleanup(func() { eng.Close() })

	faqIndex, err := keyword.NewFAQIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { faqIndex.Close() })

	imp := importer.NewImporter(store, eng, faqIndex, cfg.Corpus.DefaultLanguage, zap.NewNop())
	srv := server.NewServer(eng, imp, store, faqIndex, cfg, zap.NewNop())

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts.URL, dir
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}

func importCorpus(t *testing.T, baseURL, path string) models.ImportResponse {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/v1/faqs/import", models.ImportRequest{FilePath: path})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import returned status %d", resp.StatusCode)
	}
	var imported models.ImportResponse
	decodeBody(t, resp, &imported)
	return imported
}

func TestE2E_ImportAndQuery(t *testing.T) {
	baseURL, dir := startStack(t, nil)

	corpus := BuildCorpus()
	if corpus.TotalFaqs == 0 {
		t.Fatal("corpus has no FAQs")
	}
	if corpus.TotalQueries == 0 {
		t.Fatal("corpus has no query test cases")
	}

	data, err := corpus.ToCSV()
	if err != nil {
		t.Fatal(err)
	}
	corpusPath := filepath.Join(dir, "corpus.csv")
	if err := os.WriteFile(corpusPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	imported := importCorpus(t, baseURL, corpusPath)
	if imported.Imported != corpus.TotalFaqs {
		t.Fatalf("imported %d FAQs, want %d", imported.Imported, corpus.TotalFaqs)
	}
	if imported.Skipped != 0 {
		t.Errorf("skipped %d rows, want 0", imported.Skipped)
	}

	healthResp, err := http.Get(baseURL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var health struct {
		Status     string `json:"status"`
		FAQsLoaded int    `json:"faqs_loaded"`
	}
	decodeBody(t, healthResp, &health)
	if health.Status != "healthy" {
		t.Errorf("health status = %q", health.Status)
	}
	if health.FAQsLoaded != corpus.TotalFaqs {
		t.Errorf("faqs_loaded = %d, want %d", health.FAQsLoaded, corpus.TotalFaqs)
	}

	t.Logf("imported %d FAQs; running %d query test cases", corpus.TotalFaqs, corpus.TotalQueries)

	for _, tc := range corpus.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			resp := postJSON(t, baseURL+"/api/v1/query", models.QueryRequest{Text: tc.Query, TopK: e2eQueryTopK})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("query returned status %d", resp.StatusCode)
			}
			var answer models.QueryResponse
			decodeBody(t, resp, &answer)
			if answer.SourceID == nil {
				t.Fatalf("query %q produced no match", tc.Query)
			}
			got := questionsFromResponse(&answer)
			if !containsAnyQuestion(got, tc.ExpectedQuestions) {
				t.Errorf("query %q: expected one of %v among top matches, got %v",
					tc.Query, tc.ExpectedQuestions, got)
			}
		})
	}

	statsResp, err := http.Get(baseURL + "/api/v1/stats")
	if err != nil {
		t.Fatal(err)
	}
	var stats struct {
		TotalFAQs    int64  `json:"total_faqs"`
		TotalQueries int64  `json:"total_queries"`
		MatchingMode string `json:"matching_mode"`
	}
	decodeBody(t, statsResp, &stats)
	if stats.TotalFAQs != int64(corpus.TotalFaqs) {
		t.Errorf("total_faqs = %d, want %d", stats.TotalFAQs, corpus.TotalFaqs)
	}
	if stats.TotalQueries != int64(corpus.TotalQueries) {
		t.Errorf("total_queries = %d, want %d", stats.TotalQueries, corpus.TotalQueries)
	}
	if stats.MatchingMode != "lexical" {
		t.Errorf("matching_mode = %q", stats.MatchingMode)
	}
}

func TestE2E_XLSXImport(t *testing.T) {
	baseURL, dir := startStack(t, nil)

	corpus := BuildCorpus()
	subset := corpus.Faqs[:10]
	data, err := CorpusXLSX(subset)
	if err != nil {
		t.Fatal(err)
	}
	corpusPath := filepath.Join(dir, "corpus.xlsx")
	if err := os.WriteFile(corpusPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	imported := importCorpus(t, baseURL, corpusPath)
	if imported.Imported != len(subset) {
		t.Fatalf("imported %d FAQs from xlsx, want %d", imported.Imported, len(subset))
	}

	resp := postJSON(t, baseURL+"/api/v1/query", models.QueryRequest{Text: "dengue symptoms rash", TopK: 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query returned status %d", resp.StatusCode)
	}
	var answer models.QueryResponse
	decodeBody(t, resp, &answer)
	if answer.SourceID == nil {
		t.Fatal("query produced no match after xlsx import")
	}
	if answer.Question != subset[0].Question {
		t.Errorf("top match %q, want %q", answer.Question, subset[0].Question)
	}
}

func TestE2E_EmbeddingMode(t *testing.T) {
	factory := func(context.Context) (embedding.Embedder, error) {
		return embedding.NewMockEmbedder(16), nil
	}
	baseURL, dir := startStack(t, factory)

	corpus := BuildCorpus()
	data, err := corpus.ToCSV()
	if err != nil {
		t.Fatal(err)
	}
	corpusPath := filepath.Join(dir, "corpus.csv")
	if err := os.WriteFile(corpusPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	imported := importCorpus(t, baseURL, corpusPath)
	if imported.Imported != corpus.TotalFaqs {
		t.Fatalf("imported %d FAQs, want %d", imported.Imported, corpus.TotalFaqs)
	}

	// The deterministic test embedder carries no meaning, so the only query
	// guaranteed to rank an entry first is the entry's own indexed text.
	target := corpus.Faqs[5]
	query := target.Question + " " + target.Answer
	resp := postJSON(t, baseURL+"/api/v1/query", models.QueryRequest{Text: query, TopK: 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query returned status %d", resp.StatusCode)
	}
	var answer models.QueryResponse
	decodeBody(t, resp, &answer)
	if answer.SourceID == nil {
		t.Fatal("query produced no match")
	}
	if answer.Question != target.Question {
		t.Errorf("top match %q, want %q", answer.Question, target.Question)
	}
	if answer.Score < 0.999 {
		t.Errorf("self similarity = %v, want close to 1", answer.Score)
	}

	healthResp, err := http.Get(baseURL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var health struct {
		EmbeddingsEnabled bool `json:"embeddings_enabled"`
	}
	decodeBody(t, healthResp, &health)
	if !health.EmbeddingsEnabled {
		t.Error("embeddings_enabled = false with a live embedder")
	}
}

func TestE2E_ReimportReplacesCorpus(t *testing.T) {
	baseURL, dir := startStack(t, nil)

	corpus := BuildCorpus()
	data, err := corpus.ToCSV()
	if err != nil {
		t.Fatal(err)
	}
	firstPath := filepath.Join(dir, "corpus.csv")
	if err := os.WriteFile(firstPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	importCorpus(t, baseURL, firstPath)

	replacement := []E2EFaq{
		{"What is the helpline number for ambulance services?", "Dial 108 for a free government ambulance anywhere in the country.", "en"},
	}
	small := &Corpus{Faqs: replacement}
	data, err = small.ToCSV()
	if err != nil {
		t.Fatal(err)
	}
	secondPath := filepath.Join(dir, "replacement.csv")
	if err := os.WriteFile(secondPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	resp := postJSON(t, baseURL+"/api/v1/faqs/import", models.ImportRequest{
		FilePath:      secondPath,
		ClearExisting: true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import returned status %d", resp.StatusCode)
	}
	var imported models.ImportResponse
	decodeBody(t, resp, &imported)
	if imported.Total != 1 {
		t.Fatalf("total_faqs after clearing import = %d, want 1", imported.Total)
	}

	queryResp := postJSON(t, baseURL+"/api/v1/query", models.QueryRequest{Text: "ambulance helpline number", TopK: 1})
	var answer models.QueryResponse
	decodeBody(t, queryResp, &answer)
	if answer.SourceID == nil {
		t.Fatal("query produced no match after reimport")
	}
	if answer.Question != replacement[0].Question {
		t.Errorf("top match %q, want %q", answer.Question, replacement[0].Question)
	}

	// The old corpus must be gone from both storage and the indexes.
	listResp, err := http.Get(fmt.Sprintf("%s/api/v1/faqs?limit=%d", baseURL, 100))
	if err != nil {
		t.Fatal(err)
	}
	var listing struct {
		Total int64 `json:"total"`
	}
	decodeBody(t, listResp, &listing)
	if listing.Total != 1 {
		t.Errorf("listing total = %d, want 1", listing.Total)
	}
}

func questionsFromResponse(resp *models.QueryResponse) []string {
	out := make([]string, 0, 1+len(resp.Alternatives))
	out = append(out, resp.Question)
	for _, alt := range resp.Alternatives {
		out = append(out, alt.Question)
	}
	return out
}

func containsAnyQuestion(got []string, expected []string) bool {
	set := make(map[string]bool)
	for _, q := range got {
		set[q] = true
	}
	for _, q := range expected {
		if set[q] {
			return true
		}
	}
	return false
}
