// Package storage defines the persistence interface for FAQs, query logs
// and import records.
package storage

import (
	"context"
	"errors"

	"github.com/swasth-ai/swasth/internal/models"
)

// ErrFAQNotFound is returned when a FAQ lookup finds no row.
var ErrFAQNotFound = errors.New("faq not found")

// Storage defines FAQ and query log persistence operations.
type Storage interface {
	// FAQ operations
	CreateFAQ(ctx context.Context, faq *models.FaqEntry) error
	BatchCreateFAQs(ctx context.Context, faqs []*models.FaqEntry) error
	GetFAQ(ctx context.Context, id int64) (*models.FaqEntry, error)
	ListFAQs(ctx context.Context, offset, limit int) ([]models.FaqEntry, error)
	AllFAQs(ctx context.Context) ([]models.FaqEntry, error)
	DeleteAllFAQs(ctx context.Context) error
	CountFAQs(ctx context.Context) (int64, error)
	LanguageCounts(ctx context.Context) (map[string]int64, error)

	// Query log operations
	CreateQueryLog(ctx context.Context, log *models.QueryLog) error
	CountQueryLogs(ctx context.Context) (int64, error)
	RecentQueryLogs(ctx context.Context, limit int) ([]models.QueryLog, error)

	// Import audit operations
	CreateImportRecord(ctx context.Context, rec *models.ImportRecord) error
	CountImports(ctx context.Context) (int64, error)

	Close() error
}
