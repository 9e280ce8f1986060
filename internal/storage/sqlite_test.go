package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/swasth-ai/swasth/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorage_FAQCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	faq := &models.FaqEntry{Question: "What is fever?", Answer: "A raised body temperature.", Language: "en"}
	if err := store.CreateFAQ(ctx, faq); err != nil {
		t.Fatal(err)
	}
	if faq.ID == 0 {
		t.Error("ID should be assigned")
	}
	if faq.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetFAQ(ctx, faq.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Question != "What is fever?" || got.Answer != "A raised body temperature." {
		t.Errorf("got %+v", got)
	}

	_, err = store.GetFAQ(ctx, 9999)
	if !errors.Is(err, ErrFAQNotFound) {
		t.Errorf("expected ErrFAQNotFound, got %v", err)
	}
}

func TestSQLiteStorage_DefaultLanguage(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	faq := &models.FaqEntry{Question: "q", Answer: "a"}
	if err := store.CreateFAQ(ctx, faq); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetFAQ(ctx, faq.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Language != "en" {
		t.Errorf("language: got %q, want en", got.Language)
	}
}

func TestSQLiteStorage_BatchCreateAndList(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	faqs := []*models.FaqEntry{
		{Question: "q1", Answer: "a1", Language: "en"},
		{Question: "q2", Answer: "a2", Language: "hi"},
		{Question: "q3", Answer: "a3", Language: "en"},
	}
	if err := store.BatchCreateFAQs(ctx, faqs); err != nil {
		t.Fatal(err)
	}
	for i, faq := range faqs {
		if faq.ID == 0 {
			t.Errorf("faq %d: ID not assigned", i)
		}
	}
	if faqs[0].ID >= faqs[1].ID || faqs[1].ID >= faqs[2].ID {
		t.Errorf("IDs should be increasing: %d, %d, %d", faqs[0].ID, faqs[1].ID, faqs[2].ID)
	}

	all, err := store.AllFAQs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 FAQs, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Error("AllFAQs should be ordered by ID")
		}
	}

	page, err := store.ListFAQs(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Question != "q2" {
		t.Errorf("page: got %+v", page)
	}

	n, err := store.CountFAQs(ctx)
	if err != nil || n != 3 {
		t.Errorf("CountFAQs: %v, %d", err, n)
	}

	langs, err := store.LanguageCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if langs["en"] != 2 || langs["hi"] != 1 {
		t.Errorf("LanguageCounts: got %v", langs)
	}

	if err := store.DeleteAllFAQs(ctx); err != nil {
		t.Fatal(err)
	}
	n, _ = store.CountFAQs(ctx)
	if n != 0 {
		t.Errorf("expected 0 FAQs after delete, got %d", n)
	}
}

func TestSQLiteStorage_QueryLogs(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	faq := &models.FaqEntry{Question: "q", Answer: "a"}
	_ = store.CreateFAQ(ctx, faq)

	matched := faq.ID
	logs := []*models.QueryLog{
		{UserQuery: "what is fever", DetectedLanguage: "en", MatchedFaqID: &matched, ConfidenceScore: 0.92, IPAddress: "10.0.0.1"},
		{UserQuery: "gibberish", DetectedLanguage: "en", ConfidenceScore: 0},
	}
	for _, log := range logs {
		if err := store.CreateQueryLog(ctx, log); err != nil {
			t.Fatal(err)
		}
		if log.ID == 0 {
			t.Error("log ID should be assigned")
		}
	}

	n, err := store.CountQueryLogs(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountQueryLogs: %v, %d", err, n)
	}

	recent, err := store.RecentQueryLogs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(recent))
	}
	if recent[0].UserQuery != "gibberish" {
		t.Errorf("newest first: got %q", recent[0].UserQuery)
	}
	if recent[0].MatchedFaqID != nil {
		t.Error("unmatched query should have nil MatchedFaqID")
	}
	if recent[1].MatchedFaqID == nil || *recent[1].MatchedFaqID != faq.ID {
		t.Errorf("matched query: got %v", recent[1].MatchedFaqID)
	}
}

func TestSQLiteStorage_ImportRecords(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	rec := &models.ImportRecord{
		ID: "imp-1", Source: "health_faqs.csv", Format: "csv",
		Imported: 40, Skipped: 2, Cleared: true,
	}
	if err := store.CreateImportRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}
	n, err := store.CountImports(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountImports: %v, %d", err, n)
	}
}
