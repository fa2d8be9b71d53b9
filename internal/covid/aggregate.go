package covid

import (
	"go.uber.org/zap"

	"github.com/mrusso19/covid-data-aggregation/internal/logging"
)

// AggregateByRegion folds canonical province records into one RegionDay per
// region code. The submission date of the first record is adopted as the
// reporting date for the whole batch; records carrying a different date are
// still counted but the mismatch is logged. Grouping is by region code, not
// name, so spelling variance in names can neither merge nor split regions.
// The per-region sum is order-independent; output rows keep first-seen
// region order so identical input yields identical output.
func AggregateByRegion(records []ProvinceRecord) []RegionDay {
	if len(records) == 0 {
		return nil
	}

	reportDate := records[0].SubmissionDate

	byCode := make(map[string]*RegionDay, len(records))
	order := make([]string, 0, len(records))

	for _, rec := range records {
		if !rec.SubmissionDate.Equal(reportDate) {
			logging.Warn("inconsistent submission date within batch, keeping first date",
				zap.String("expected", DateKey(reportDate)),
				zap.String("found", DateKey(rec.SubmissionDate)),
				zap.String("region", rec.RegionName))
		}

		row, ok := byCode[rec.RegionCode]
		if !ok {
			row = &RegionDay{
				SubmissionDate: reportDate,
				RegionCode:     rec.RegionCode,
				RegionName:     rec.RegionName,
			}
			byCode[rec.RegionCode] = row
			order = append(order, rec.RegionCode)
		}
		row.TotalPositiveCases += rec.CaseCount
	}

	rows := make([]RegionDay, 0, len(order))
	for _, code := range order {
		rows = append(rows, *byCode[code])
	}
	return rows
}
