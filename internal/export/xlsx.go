// Package export renders stored region rows as spreadsheet documents.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
)

var headers = []string{"Regione", "Totale Casi Positivi", "Data Riferimento"}

// RegionsWorkbook renders rows into an xlsx workbook with a single sheet
// named after the report date. Headers are bold and columns are sized to
// their longest value.
func RegionsWorkbook(rows []covid.RegionDay, reportDate time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Dati Regioni %s", covid.DateKey(reportDate))
	f.SetSheetName("Sheet1", sheet)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", boldStyle); err != nil {
		return nil, err
	}

	widths := []int{len(headers[0]), len(headers[1]), len(headers[2])}
	for r, row := range rows {
		values := []any{row.RegionName, row.TotalPositiveCases, covid.DateKey(row.SubmissionDate)}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}

		if n := len(row.RegionName); n > widths[0] {
			widths[0] = n
		}
		if n := len(strconv.Itoa(row.TotalPositiveCases)); n > widths[1] {
			widths[1] = n
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, float64(w)+2); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

// Filename returns the attachment name for a report date.
func Filename(reportDate time.Time) string {
	return fmt.Sprintf("covid_data_regioni_%s.xlsx", reportDate.Format("20060102"))
}
