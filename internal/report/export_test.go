package report_test

import (
	"path/filepath"
	"testing"

	"itemtrack/internal/report"

	"github.com/xuri/excelize/v2"
)

func TestExportDetailedXLSX(t *testing.T) {
	rows := []report.DetailRow{
		{
			FullBarcode:   "PIPI_01_02_23_G1_0001",
			ItemType:      "PioPino",
			Generation:    "G1",
			CreatedDate:   "01.02.2023",
			LatestScan:    "2023-02-01 10:00:00",
			CurrentStatus: "IN",
			Note:          "looks healthy",
			LocationName:  "Shelf 1",
		},
		{
			FullBarcode:   "CHNU_03_04_23_G2_0002",
			ItemType:      "Chestnut",
			Generation:    "G2",
			CreatedDate:   "03.04.2023",
			CurrentStatus: "OUT",
			LocationName:  "No location",
		},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := report.ExportDetailedXLSX(rows, path); err != nil {
		t.Fatalf("ExportDetailedXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	got, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(got))
	}
	if got[0][0] != "Barcode" || got[0][7] != "Note" {
		t.Errorf("header = %v", got[0])
	}
	if got[1][0] != "PIPI_01_02_23_G1_0001" {
		t.Errorf("first row barcode = %q", got[1][0])
	}
	if got[2][5] != "OUT" {
		t.Errorf("second row status = %q", got[2][5])
	}
}

func TestExportDetailedXLSXEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := report.ExportDetailedXLSX(nil, path); err != nil {
		t.Fatalf("ExportDetailedXLSX: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	got, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("rows = %d, want header only", len(got))
	}
}
