// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/swasth-ai/swasth/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS faqs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT 'en',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_faqs_language ON faqs(language);

	CREATE TABLE IF NOT EXISTS query_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_query TEXT NOT NULL,
		detected_language TEXT,
		matched_faq_id INTEGER,
		confidence_score REAL NOT NULL DEFAULT 0,
		ip_address TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (matched_faq_id) REFERENCES faqs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_query_logs_created_at ON query_logs(created_at);

	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		format TEXT NOT NULL,
		imported INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		cleared INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateFAQ inserts a FAQ and assigns its generated ID.
func (s *SQLiteStorage) CreateFAQ(ctx context.Context, faq *models.FaqEntry) error {
	if faq.Language == "" {
		faq.Language = "en"
	}
	faq.CreatedAt = time.Now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO faqs (question, answer, language, created_at)
		 VALUES (?, ?, ?, ?)`,
		faq.Question, faq.Answer, faq.Language, faq.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	faq.ID = id
	return nil
}

// BatchCreateFAQs inserts multiple FAQs in a transaction and assigns generated IDs.
func (s *SQLiteStorage) BatchCreateFAQs(ctx context.Context, faqs []*models.FaqEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO faqs (question, answer, language, created_at)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, faq := range faqs {
		if faq.Language == "" {
			faq.Language = "en"
		}
		faq.CreatedAt = now
		res, err := stmt.ExecContext(ctx, faq.Question, faq.Answer, faq.Language, faq.CreatedAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		faq.ID = id
	}
	return tx.Commit()
}

// GetFAQ returns a FAQ by ID. Returns ErrFAQNotFound if no row exists.
func (s *SQLiteStorage) GetFAQ(ctx context.Context, id int64) (*models.FaqEntry, error) {
	var faq models.FaqEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question, answer, language, created_at
		 FROM faqs WHERE id = ?`, id,
	).Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.Language, &faq.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("faq %d: %w", id, ErrFAQNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &faq, nil
}

// ListFAQs returns FAQs ordered by ID with offset and limit.
func (s *SQLiteStorage) ListFAQs(ctx context.Context, offset, limit int) ([]models.FaqEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, language, created_at
		 FROM faqs ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFAQs(rows)
}

// AllFAQs returns every FAQ ordered by ID. The order is what the matching
// index uses to break score ties, so it must be stable across calls.
func (s *SQLiteStorage) AllFAQs(ctx context.Context) ([]models.FaqEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, language, created_at
		 FROM faqs ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFAQs(rows)
}

func scanFAQs(rows *sql.Rows) ([]models.FaqEntry, error) {
	faqs := []models.FaqEntry{}
	for rows.Next() {
		var faq models.FaqEntry
		if err := rows.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.Language, &faq.CreatedAt); err != nil {
			return nil, err
		}
		faqs = append(faqs, faq)
	}
	return faqs, rows.Err()
}

// DeleteAllFAQs removes every FAQ row.
func (s *SQLiteStorage) DeleteAllFAQs(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM faqs`)
	return err
}

// CountFAQs returns the total number of FAQs.
func (s *SQLiteStorage) CountFAQs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faqs`).Scan(&count)
	return count, err
}

// LanguageCounts returns the number of FAQs per language code.
func (s *SQLiteStorage) LanguageCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT language, COUNT(*) FROM faqs GROUP BY language`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var lang string
		var n int64
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, err
		}
		counts[lang] = n
	}
	return counts, rows.Err()
}

// CreateQueryLog inserts a query log entry and assigns its generated ID.
func (s *SQLiteStorage) CreateQueryLog(ctx context.Context, log *models.QueryLog) error {
	log.CreatedAt = time.Now()

	var matched sql.NullInt64
	if log.MatchedFaqID != nil {
		matched = sql.NullInt64{Int64: *log.MatchedFaqID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO query_logs (user_query, detected_language, matched_faq_id, confidence_score, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		log.UserQuery, log.DetectedLanguage, matched, log.ConfidenceScore, log.IPAddress, log.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = id
	return nil
}

// CountQueryLogs returns the total number of logged queries.
func (s *SQLiteStorage) CountQueryLogs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_logs`).Scan(&count)
	return count, err
}

// RecentQueryLogs returns the most recent query logs, newest first.
func (s *SQLiteStorage) RecentQueryLogs(ctx context.Context, limit int) ([]models.QueryLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_query, detected_language, matched_faq_id, confidence_score, ip_address, created_at
		 FROM query_logs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.QueryLog{}
	for rows.Next() {
		var log models.QueryLog
		var matched sql.NullInt64
		if err := rows.Scan(&log.ID, &log.UserQuery, &log.DetectedLanguage, &matched,
			&log.ConfidenceScore, &log.IPAddress, &log.CreatedAt); err != nil {
			return nil, err
		}
		if matched.Valid {
			id := matched.Int64
			log.MatchedFaqID = &id
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// CreateImportRecord inserts an import audit record.
func (s *SQLiteStorage) CreateImportRecord(ctx context.Context, rec *models.ImportRecord) error {
	rec.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (id, source, format, imported, skipped, cleared, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Format, rec.Imported, rec.Skipped, rec.Cleared, rec.CreatedAt,
	)
	return err
}

// CountImports returns the total number of import runs.
func (s *SQLiteStorage) CountImports(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM imports`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
