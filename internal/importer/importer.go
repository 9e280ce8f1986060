// Package importer loads FAQ corpus files into storage and refreshes the
// matching engine and listing index afterwards.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swasth-ai/swasth/internal/engine"
	"github.com/swasth-ai/swasth/internal/keyword"
	"github.com/swasth-ai/swasth/internal/models"
	"github.com/swasth-ai/swasth/internal/storage"
)

// ErrUnsupportedFormat is returned for corpus files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported corpus format")

// Importer reads question/answer rows from corpus files, stores them, and
// rebuilds the indices that serve queries.
type Importer struct {
	storage         storage.Storage
	engine          *engine.Engine
	faqIndex        *keyword.FAQIndex
	defaultLanguage string
	logger          *zap.Logger
}

// NewImporter creates an importer with the given dependencies. Rows without a
// language column are assigned defaultLanguage.
func NewImporter(store storage.Storage, eng *engine.Engine, faqIndex *keyword.FAQIndex, defaultLanguage string, logger *zap.Logger) *Importer {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &Importer{
		storage:         store,
		engine:          eng,
		faqIndex:        faqIndex,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// ImportFile imports the corpus file at path. Rows missing a question or an
// answer are skipped. When clearExisting is true the FAQ table is emptied
// first. After the rows are stored, the matching engine and the listing index
// are rebuilt and an audit record is written.
func (imp *Importer) ImportFile(ctx context.Context, path string, clearExisting bool) (*models.ImportRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	format := formatFromPath(path)
	var faqs []*models.FaqEntry
	var skipped int
	switch format {
	case "csv":
		faqs, skipped, err = parseCSV(content, imp.defaultLanguage)
	case "xlsx":
		faqs, skipped, err = parseXLSX(content, imp.defaultLanguage)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse corpus file: %w", err)
	}

	if clearExisting {
		if err := imp.storage.DeleteAllFAQs(ctx); err != nil {
			return nil, fmt.Errorf("clear existing faqs: %w", err)
		}
		imp.logger.Info("cleared existing FAQs before import")
	}

	if len(faqs) > 0 {
		if err := imp.storage.BatchCreateFAQs(ctx, faqs); err != nil {
			return nil, fmt.Errorf("store faqs: %w", err)
		}
	}

	if err := imp.Reload(ctx); err != nil {
		return nil, err
	}

	record := &models.ImportRecord{
		ID:       uuid.New().String(),
		Source:   filepath.Base(path),
		Format:   format,
		Imported: len(faqs),
		Skipped:  skipped,
		Cleared:  clearExisting,
	}
	if err := imp.storage.CreateImportRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	imp.logger.Info("corpus imported",
		zap.String("source", record.Source),
		zap.String("format", record.Format),
		zap.Int("imported", record.Imported),
		zap.Int("skipped", record.Skipped),
		zap.Bool("cleared", record.Cleared),
	)
	return record, nil
}

// Reload rebuilds the matching engine and the listing index from the FAQs
// currently in storage.
func (imp *Importer) Reload(ctx context.Context) error {
	faqs, err := imp.storage.AllFAQs(ctx)
	if err != nil {
		return fmt.Errorf("load faqs: %w", err)
	}
	if err := imp.engine.RebuildIndex(ctx, faqs); err != nil {
		return fmt.Errorf("rebuild matching index: %w", err)
	}
	if err := imp.faqIndex.Rebuild(ctx, faqs); err != nil {
		return fmt.Errorf("rebuild listing index: %w", err)
	}
	return nil
}

// Bootstrap prepares the indices at startup. When the database is empty,
// autoImport is set and the corpus file exists, the file is imported first;
// otherwise the indices are rebuilt from whatever storage holds.
func (imp *Importer) Bootstrap(ctx context.Context, corpusPath string, autoImport bool) error {
	count, err := imp.storage.CountFAQs(ctx)
	if err != nil {
		return fmt.Errorf("count faqs: %w", err)
	}
	if count == 0 && autoImport && corpusPath != "" {
		if _, statErr := os.Stat(corpusPath); statErr == nil {
			_, err := imp.ImportFile(ctx, corpusPath, false)
			return err
		}
		imp.logger.Warn("corpus file not found, starting with empty corpus",
			zap.String("path", corpusPath))
	}
	return imp.Reload(ctx)
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return ""
	}
}
