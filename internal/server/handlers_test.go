package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/swasth-ai/swasth/internal/config"
	"github.com/swasth-ai/swasth/internal/engine"
	"github.com/swasth-ai/swasth/internal/importer"
	"github.com/swasth-ai/swasth/internal/keyword"
	"github.com/swasth-ai/swasth/internal/lang"
	"github.com/swasth-ai/swasth/internal/models"
	"github.com/swasth-ai/swasth/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "faqs.db")
	cfg.Corpus.Path = filepath.Join(dir, "faqs.csv")

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	eng := engine.New(nil, lang.NewDetector("en"), &cfg.Search, zap.NewNop())
	eng.Initialize(context.Background())
	t.Cleanup(func() { eng.Close() })

	faqIndex, err := keyword.NewFAQIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { faqIndex.Close() })

	imp := importer.NewImporter(store, eng, faqIndex, "en", zap.NewNop())
	return NewServer(eng, imp, store, faqIndex, cfg, zap.NewNop())
}

func seedFAQs(t *testing.T, srv *Server, faqs []*models.FaqEntry) {
	t.Helper()
	ctx := context.Background()
	if err := srv.storage.BatchCreateFAQs(ctx, faqs); err != nil {
		t.Fatal(err)
	}
	if err := srv.importer.Reload(ctx); err != nil {
		t.Fatal(err)
	}
}

func healthFAQs() []*models.FaqEntry {
	return []*models.FaqEntry{
		{Question: "What are the symptoms of fever?", Answer: "Common symptoms include high temperature, chills and sweating.", Language: "en"},
		{Question: "How can I prevent dengue?", Answer: "Remove standing water and use mosquito repellent.", Language: "en"},
		{Question: "What should I eat during a cold?", Answer: "Warm fluids, soups and plenty of rest help recovery.", Language: "en"},
	}
}

func postJSON(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	seedFAQs(t, srv, healthFAQs())

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Status            string `json:"status"`
		Timestamp         string `json:"timestamp"`
		EmbeddingsEnabled bool   `json:"embeddings_enabled"`
		FaqsLoaded        int    `json:"faqs_loaded"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "healthy" {
		t.Errorf("status field: got %q", out.Status)
	}
	if out.Timestamp == "" {
		t.Error("timestamp missing")
	}
	if out.EmbeddingsEnabled {
		t.Error("embeddings_enabled: got true for a lexical-only server")
	}
	if out.FaqsLoaded != 3 {
		t.Errorf("faqs_loaded: got %d, want 3", out.FaqsLoaded)
	}
}

func TestHandleQuery(t *testing.T) {
	srv := newTestServer(t)
	faqs := healthFAQs()
	seedFAQs(t, srv, faqs)

	r := postJSON(t, map[string]string{"text": "what are the symptoms of fever"})
	w := httptest.NewRecorder()
	srv.handleQuery(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var resp models.QueryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SourceID == nil {
		t.Fatal("source_id: got nil, want a match")
	}
	if resp.Answer != faqs[0].Answer {
		t.Errorf("answer: got %q", resp.Answer)
	}
	if resp.Question != faqs[0].Question {
		t.Errorf("question: got %q", resp.Question)
	}
	if resp.Score <= 0 || resp.Score > 1 {
		t.Errorf("score: got %v", resp.Score)
	}
	if resp.DetectedLanguage == "" {
		t.Error("detected_language missing")
	}

	logs, err := srv.storage.CountQueryLogs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if logs != 1 {
		t.Errorf("query logs: got %d, want 1", logs)
	}
}

func TestHandleQuery_EmptyCorpus(t *testing.T) {
	srv := newTestServer(t)

	r := postJSON(t, map[string]string{"text": "how do I treat a fever"})
	w := httptest.NewRecorder()
	srv.handleQuery(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var resp models.QueryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SourceID != nil {
		t.Errorf("source_id: got %v, want null", *resp.SourceID)
	}
	if resp.Score != 0 {
		t.Errorf("score: got %v, want 0", resp.Score)
	}
	if resp.Answer != srv.config.Search.NoMatchMessage {
		t.Errorf("answer: got %q", resp.Answer)
	}

	// The unanswered query still lands in the log.
	logs, err := srv.storage.CountQueryLogs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if logs != 1 {
		t.Errorf("query logs: got %d, want 1", logs)
	}
}

func TestHandleQuery_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.handleQuery(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleQuery_BlankText(t *testing.T) {
	srv := newTestServer(t)

	r := postJSON(t, map[string]string{"text": "   "})
	w := httptest.NewRecorder()
	srv.handleQuery(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleQuery_Alternatives(t *testing.T) {
	srv := newTestServer(t)
	seedFAQs(t, srv, healthFAQs())

	r := postJSON(t, map[string]interface{}{"text": "fever symptoms", "top_k": 3})
	w := httptest.NewRecorder()
	srv.handleQuery(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var resp models.QueryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Alternatives) != 2 {
		t.Fatalf("alternatives: got %d, want 2", len(resp.Alternatives))
	}
	prev := resp.Score
	for i, alt := range resp.Alternatives {
		if alt.Score > prev {
			t.Errorf("alternative %d out of order: %v > %v", i, alt.Score, prev)
		}
		prev = alt.Score
	}
}

func writeCorpusCSV(t *testing.T, path string) {
	t.Helper()
	content := "question,answer,language\n" +
		"What is malaria?,Malaria is a mosquito-borne disease caused by a parasite.,en\n" +
		"How is typhoid spread?,Typhoid spreads through contaminated food and water.,en\n" +
		"Skipped row,,en\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestHandleImport(t *testing.T) {
	srv := newTestServer(t)
	path := filepath.Join(t.TempDir(), "corpus.csv")
	writeCorpusCSV(t, path)

	r := postJSON(t, map[string]string{"file_path": path})
	w := httptest.NewRecorder()
	srv.handleImport(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var resp models.ImportResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ImportID == "" {
		t.Error("import_id missing")
	}
	if resp.Imported != 2 || resp.Skipped != 1 {
		t.Errorf("counts: got imported=%d skipped=%d", resp.Imported, resp.Skipped)
	}
	if resp.Total != 2 {
		t.Errorf("total_faqs: got %d, want 2", resp.Total)
	}
	if resp.Message != "Successfully imported 2 FAQs" {
		t.Errorf("message: got %q", resp.Message)
	}
	if got := srv.engine.IndexSize(); got != 2 {
		t.Errorf("index size after import: got %d, want 2", got)
	}
}

func TestHandleImport_DefaultsToCorpusPath(t *testing.T) {
	srv := newTestServer(t)
	writeCorpusCSV(t, srv.config.Corpus.Path)

	r := postJSON(t, map[string]string{})
	w := httptest.NewRecorder()
	srv.handleImport(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var resp models.ImportResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Imported != 2 {
		t.Errorf("imported: got %d, want 2", resp.Imported)
	}
}

func TestHandleImport_FileNotFound(t *testing.T) {
	srv := newTestServer(t)

	r := postJSON(t, map[string]string{"file_path": "/nonexistent/corpus.csv"})
	w := httptest.NewRecorder()
	srv.handleImport(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out["error"], "File not found") {
		t.Errorf("error: got %q", out["error"])
	}
}

func TestHandleImport_UnsupportedFormat(t *testing.T) {
	srv := newTestServer(t)
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte("not a corpus"), 0644); err != nil {
		t.Fatal(err)
	}

	r := postJSON(t, map[string]string{"file_path": path})
	w := httptest.NewRecorder()
	srv.handleImport(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleGetFAQ(t *testing.T) {
	srv := newTestServer(t)
	faqs := healthFAQs()
	seedFAQs(t, srv, faqs)
	router := srv.Router()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/faqs/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var faq models.FaqEntry
	if err := json.NewDecoder(w.Body).Decode(&faq); err != nil {
		t.Fatal(err)
	}
	if faq.ID != 1 || faq.Question != faqs[0].Question {
		t.Errorf("faq: got %+v", faq)
	}
}

func TestHandleGetFAQ_NotFound(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/faqs/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleGetFAQ_InvalidID(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/faqs/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleListFAQs(t *testing.T) {
	srv := newTestServer(t)
	seedFAQs(t, srv, []*models.FaqEntry{
		{Question: "What are the symptoms of fever?", Answer: "High temperature and chills.", Language: "en"},
		{Question: "How can I prevent dengue?", Answer: "Use mosquito repellent.", Language: "en"},
		{Question: "बुखार के लक्षण क्या हैं?", Answer: "तेज तापमान और ठंड लगना।", Language: "hi"},
	})
	router := srv.Router()

	t.Run("plain listing pages from storage", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/faqs?limit=2", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d", w.Code)
		}
		var out struct {
			FAQs   []models.FaqEntry `json:"faqs"`
			Total  int64             `json:"total"`
			Limit  int               `json:"limit"`
			Offset int               `json:"offset"`
		}
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		if len(out.FAQs) != 2 || out.Total != 3 {
			t.Errorf("got %d faqs, total %d", len(out.FAQs), out.Total)
		}
		if out.Limit != 2 || out.Offset != 0 {
			t.Errorf("paging echo: limit=%d offset=%d", out.Limit, out.Offset)
		}
	})

	t.Run("language filter", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/faqs?language=hi", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d", w.Code)
		}
		var out struct {
			FAQs []models.FaqEntry `json:"faqs"`
		}
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		if len(out.FAQs) != 1 || out.FAQs[0].Language != "hi" {
			t.Errorf("got %+v", out.FAQs)
		}
	})

	t.Run("keyword filter", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/faqs?q=dengue", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d", w.Code)
		}
		var out struct {
			FAQs []models.FaqEntry `json:"faqs"`
		}
		if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		if len(out.FAQs) != 1 || out.FAQs[0].ID != 2 {
			t.Errorf("got %+v", out.FAQs)
		}
	})
}

func TestHandleStats(t *testing.T) {
	srv := newTestServer(t)
	seedFAQs(t, srv, healthFAQs())

	// One answered query so the log counter moves.
	r := postJSON(t, map[string]string{"text": "fever symptoms"})
	srv.handleQuery(httptest.NewRecorder(), r)

	r = httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	srv.handleStats(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		TotalFAQs         int64            `json:"total_faqs"`
		TotalQueries      int64            `json:"total_queries"`
		TotalImports      int64            `json:"total_imports"`
		EmbeddingsEnabled bool             `json:"embeddings_enabled"`
		MatchingMode      string           `json:"matching_mode"`
		IndexSize         int              `json:"index_size"`
		Languages         map[string]int64 `json:"languages"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.TotalFAQs != 3 {
		t.Errorf("total_faqs: got %d", out.TotalFAQs)
	}
	if out.TotalQueries != 1 {
		t.Errorf("total_queries: got %d", out.TotalQueries)
	}
	if out.MatchingMode != "lexical" {
		t.Errorf("matching_mode: got %q", out.MatchingMode)
	}
	if out.IndexSize != 3 {
		t.Errorf("index_size: got %d", out.IndexSize)
	}
	if out.Languages["en"] != 3 {
		t.Errorf("languages: got %v", out.Languages)
	}
}

func TestRateLimit_Query(t *testing.T) {
	srv := newTestServer(t)
	seedFAQs(t, srv, healthFAQs())
	srv.queryLimiter = newClientLimiter(perMinute(2))
	router := srv.Router()

	for i := 0; i < 2; i++ {
		data, _ := json.Marshal(map[string]string{"text": "fever"})
		r := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(data))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, body: %s", i, w.Code, w.Body.String())
		}
	}

	data, _ := json.Marshal(map[string]string{"text": "fever"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want 429", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["error"] != "Rate limit exceeded. Please try again later." {
		t.Errorf("error: got %q", out["error"])
	}
}
