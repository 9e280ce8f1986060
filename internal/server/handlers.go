package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/swasth-ai/swasth/internal/engine"
	"github.com/swasth-ai/swasth/internal/importer"
	"github.com/swasth-ai/swasth/internal/models"
	"github.com/swasth-ai/swasth/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"embeddings_enabled": s.engine.EmbeddingEnabled(),
		"faqs_loaded":        s.engine.IndexSize(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("text", req.Text), zap.Int("top_k", req.TopK))

	detected, err := s.engine.DetectLanguage(req.Text)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := s.engine.Search(r.Context(), req.Text, req.TopK)
	if err != nil {
		var invalid *engine.InvalidQueryError
		if errors.As(err, &invalid) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := models.QueryResponse{
		Answer:           s.config.Search.NoMatchMessage,
		Score:            0,
		DetectedLanguage: detected,
	}
	logEntry := &models.QueryLog{
		UserQuery:        req.Text,
		DetectedLanguage: detected,
		IPAddress:        clientIP(r),
	}

	if len(matches) > 0 {
		best := matches[0]
		id := best.Entry.ID
		resp.Answer = best.Entry.Answer
		resp.Question = best.Entry.Question
		resp.SourceID = &id
		resp.Score = roundScore(best.Score)
		for _, m := range matches[1:] {
			resp.Alternatives = append(resp.Alternatives, models.Answer{
				SourceID: m.Entry.ID,
				Question: m.Entry.Question,
				Answer:   m.Entry.Answer,
				Score:    roundScore(m.Score),
			})
		}
		logEntry.MatchedFaqID = &id
		logEntry.ConfidenceScore = resp.Score
	}

	// Unanswered queries are logged too; they show which questions the corpus
	// is missing. A logging failure must not cost the user their answer.
	if err := s.storage.CreateQueryLog(r.Context(), logEntry); err != nil {
		s.logger.Warn("failed to log query", zap.Error(err))
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// roundScore trims scores to four decimal places for response payloads.
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FilePath == "" {
		req.FilePath = s.config.Corpus.Path
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("import request", zap.String("file_path", req.FilePath), zap.Bool("clear_existing", req.ClearExisting))

	record, err := s.importer.ImportFile(r.Context(), req.FilePath, req.ClearExisting)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("File not found: %s", req.FilePath))
		case errors.Is(err, importer.ErrUnsupportedFormat):
			s.respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("import failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	total, err := s.storage.CountFAQs(r.Context())
	if err != nil {
		s.logger.Error("import: count faqs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, models.ImportResponse{
		ImportID: record.ID,
		Imported: record.Imported,
		Skipped:  record.Skipped,
		Total:    int(total),
		Message:  fmt.Sprintf("Successfully imported %d FAQs", record.Imported),
	})
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query().Get("q")
	language := r.URL.Query().Get("language")
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	// A keyword filter routes through the Bleve index; a plain listing pages
	// straight out of SQLite.
	if q != "" || language != "" {
		hits, err := s.faqIndex.Search(ctx, q, language, limit)
		if err != nil {
			s.logger.Error("faq filter failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		faqs := make([]models.FaqEntry, 0, len(hits))
		for _, hit := range hits {
			faq, err := s.storage.GetFAQ(ctx, hit.ID)
			if err != nil {
				// The row may have been cleared since the index was built.
				if errors.Is(err, storage.ErrFAQNotFound) {
					continue
				}
				s.logger.Error("faq lookup failed", zap.Error(err))
				s.respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			faqs = append(faqs, *faq)
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"faqs":  faqs,
			"total": len(faqs),
		})
		return
	}

	faqs, err := s.storage.ListFAQs(ctx, offset, limit)
	if err != nil {
		s.logger.Error("faq list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountFAQs(ctx)
	if err != nil {
		s.logger.Error("faq count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"faqs":   faqs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleGetFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid faq id")
		return
	}
	faq, err := s.storage.GetFAQ(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrFAQNotFound) {
			s.respondError(w, http.StatusNotFound, "faq not found")
			return
		}
		s.logger.Error("faq lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, faq)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	totalFAQs, err := s.storage.CountFAQs(ctx)
	if err != nil {
		s.logger.Error("stats: count faqs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	totalQueries, err := s.storage.CountQueryLogs(ctx)
	if err != nil {
		s.logger.Error("stats: count queries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	totalImports, err := s.storage.CountImports(ctx)
	if err != nil {
		s.logger.Error("stats: count imports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	languages, err := s.storage.LanguageCounts(ctx)
	if err != nil {
		s.logger.Error("stats: language counts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"total_faqs":         totalFAQs,
		"total_queries":      totalQueries,
		"total_imports":      totalImports,
		"embeddings_enabled": s.engine.EmbeddingEnabled(),
		"matching_mode":      string(s.engine.CurrentMode()),
		"index_size":         s.engine.IndexSize(),
		"languages":          languages,
	}

	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Corpus.Path,
		s.config.Embedding.ModelPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}

	resp["config"] = map[string]interface{}{
		"database_path": s.config.Storage.DatabasePath,
		"corpus_path":   s.config.Corpus.Path,
		"default_top_k": s.config.Search.DefaultTopK,
		"max_top_k":     s.config.Search.MaxTopK,
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
