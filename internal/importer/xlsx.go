package importer

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/swasth-ai/swasth/internal/models"
)

// parseXLSX reads question/answer rows from the first sheet of an XLSX file.
// The first row is a header, as with CSV.
func parseXLSX(content []byte, defaultLanguage string) ([]*models.FaqEntry, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, 0, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("corpus file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("corpus file is empty")
	}

	cols, err := columnIndexes(rows[0])
	if err != nil {
		return nil, 0, err
	}

	var faqs []*models.FaqEntry
	skipped := 0
	for _, row := range rows[1:] {
		faq, ok := rowToFAQ(row, cols, defaultLanguage)
		if !ok {
			skipped++
			continue
		}
		faqs = append(faqs, faq)
	}
	return faqs, skipped, nil
}
