// Package e2e provides end-to-end tests; this file renders corpus fixture
// files in the formats the import endpoint accepts.
package e2e

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// CorpusXLSX renders FAQ rows as an XLSX workbook with a header row on the
// first sheet, mirroring the spreadsheet layout health teams maintain.
func CorpusXLSX(faqs []E2EFaq) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{"question", "answer", "language"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, faq := range faqs {
		cell := fmt.Sprintf("A%d", i+2)
		row := []any{faq.Question, faq.Answer, faq.Language}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
