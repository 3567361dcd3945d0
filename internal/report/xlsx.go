package report

import (
	"fmt"
	"io"

	"github.com/juparave/gapaudit/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Gap Report"

// WriteXLSX writes rows as a single-sheet workbook with a bold header row
func WriteXLSX(w io.Writer, rows []domain.ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetCellStyle(sheetName, "A1", "C1", style)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &[]interface{}{r.Area, r.Status, r.Notes}); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 32)
	f.SetColWidth(sheetName, "B", "B", 16)
	f.SetColWidth(sheetName, "C", "C", 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
