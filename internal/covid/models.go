package covid

import "time"

// DateLayout is the canonical YYYY-MM-DD rendering of a reporting date.
const DateLayout = "2006-01-02"

// Upstream field names shared by the JSON and CSV feeds of the
// Protezione Civile provincial dataset.
const (
	FieldDate         = "data"
	FieldRegionCode   = "codice_regione"
	FieldRegionName   = "denominazione_regione"
	FieldProvinceName = "denominazione_provincia"
	FieldTotalCases   = "totale_casi"
)

// RawProvinceRecord is one untyped province row as delivered by the upstream
// feed: a decoded JSON object or a CSV row mapped through its header. Field
// names are stable across both formats; value types are not.
type RawProvinceRecord map[string]any

// ProvinceRecord is the canonical, validated shape of one province row.
// It only lives between normalization and aggregation.
type ProvinceRecord struct {
	SubmissionDate time.Time
	RegionCode     string
	RegionName     string
	CaseCount      int
}

// RegionDay is the persisted aggregate: one row per
// (submission_date, region_name) pair.
type RegionDay struct {
	SubmissionDate     time.Time `json:"submission_date"`
	RegionCode         string    `json:"region_code"`
	RegionName         string    `json:"region_name"`
	TotalPositiveCases int       `json:"total_positive_cases"`
}

// DateOnly truncates t to midnight UTC, the representation every reporting
// date carries through the pipeline.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey renders a reporting date as its canonical store key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
