package export

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
)

func TestRegionsWorkbook(t *testing.T) {
	reportDate := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := []covid.RegionDay{
		{SubmissionDate: reportDate, RegionCode: "12", RegionName: "Lazio", TotalPositiveCases: 350},
		{SubmissionDate: reportDate, RegionCode: "13", RegionName: "Abruzzo", TotalPositiveCases: 40},
	}

	buf, err := RegionsWorkbook(rows, reportDate)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheet := "Dati Regioni 2020-03-15"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		t.Fatalf("sheet %q not found (idx=%d, err=%v)", sheet, idx, err)
	}

	cells := map[string]string{
		"A1": "Regione",
		"B1": "Totale Casi Positivi",
		"C1": "Data Riferimento",
		"A2": "Lazio",
		"B2": "350",
		"C2": "2020-03-15",
		"A3": "Abruzzo",
		"B3": "40",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestRegionsWorkbook_Empty(t *testing.T) {
	reportDate := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)

	buf, err := RegionsWorkbook(nil, reportDate)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := excelize.OpenReader(buf); err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
}

func TestFilename(t *testing.T) {
	got := Filename(time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC))
	if got != "covid_data_regioni_20200315.xlsx" {
		t.Errorf("filename = %q", got)
	}
}
