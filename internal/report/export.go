package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"Barcode", "Type", "Generation", "Created", "Last Scan", "Status", "Location", "Note",
}

// ExportDetailedXLSX writes the detailed report to an XLSX workbook.
func ExportDetailedXLSX(rows []DetailRow, path string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []string{
			row.FullBarcode, row.ItemType, row.Generation, row.CreatedDate,
			row.LatestScan, row.CurrentStatus, row.LocationName, row.Note,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("cell for row %d: %w", i+2, err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
