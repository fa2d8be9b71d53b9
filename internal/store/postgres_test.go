package store

import (
	"testing"
	"time"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
)

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name string
		opts covid.SortOptions
		want string
	}{
		{"zero value", covid.SortOptions{}, defaultOrder},
		{"unknown field", covid.SortOptions{Field: "favorite_color", Order: covid.SortAsc}, defaultOrder},
		{"name asc", covid.SortOptions{Field: covid.SortByRegionName, Order: covid.SortAsc}, "region_name ASC"},
		{"name desc", covid.SortOptions{Field: covid.SortByRegionName, Order: covid.SortDesc}, "region_name DESC"},
		{"missing order defaults to desc", covid.SortOptions{Field: covid.SortByTotalCases}, "total_positive_cases DESC"},
		{"code asc", covid.SortOptions{Field: covid.SortByRegionCode, Order: covid.SortAsc}, "region_code ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderClause(tt.opts); got != tt.want {
				t.Errorf("orderClause(%+v) = %q, want %q", tt.opts, got, tt.want)
			}
		})
	}
}

// Two rows sharing (submission_date, region_name) in one batch collapse to
// the last one, matching the in-memory store's last-write-wins.
func TestDedupeByKey(t *testing.T) {
	rows := []covid.RegionDay{
		{SubmissionDate: day(2020, 3, 15), RegionCode: "12", RegionName: "Lazio", TotalPositiveCases: 300},
		{SubmissionDate: day(2020, 3, 15), RegionCode: "13", RegionName: "Abruzzo", TotalPositiveCases: 40},
		{SubmissionDate: time.Date(2020, 3, 15, 17, 0, 0, 0, time.UTC), RegionCode: "99", RegionName: "Lazio", TotalPositiveCases: 350},
	}

	out := dedupeByKey(rows)
	if len(out) != 2 {
		t.Fatalf("rows = %d, want 2", len(out))
	}
	if out[0].RegionName != "Lazio" || out[1].RegionName != "Abruzzo" {
		t.Errorf("first-seen order not preserved: %+v", out)
	}
	if out[0].RegionCode != "99" || out[0].TotalPositiveCases != 350 {
		t.Errorf("duplicate key must keep the last row, got %+v", out[0])
	}
	if !out[0].SubmissionDate.Equal(day(2020, 3, 15)) {
		t.Errorf("date = %v, want midnight UTC", out[0].SubmissionDate)
	}
}

func TestDedupeByKey_DistinctDatesKept(t *testing.T) {
	rows := []covid.RegionDay{
		{SubmissionDate: day(2020, 3, 15), RegionCode: "12", RegionName: "Lazio", TotalPositiveCases: 300},
		{SubmissionDate: day(2020, 3, 16), RegionCode: "12", RegionName: "Lazio", TotalPositiveCases: 310},
	}

	if out := dedupeByKey(rows); len(out) != 2 {
		t.Fatalf("rows = %d, want 2 (same name on different dates is not a duplicate)", len(out))
	}
}
