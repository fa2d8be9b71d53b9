package covid

import "sort"

// SortField names a sortable column of a RegionDay row.
type SortField string

const (
	SortByTotalCases     SortField = "total_positive_cases"
	SortByRegionName     SortField = "region_name"
	SortByRegionCode     SortField = "region_code"
	SortBySubmissionDate SortField = "submission_date"
)

// SortOrder is the sort direction; anything other than SortAsc means
// descending, the default.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions selects row ordering for reads. A zero value, or any
// unrecognized field, selects the default order: total cases descending with
// region name ascending as the tie-break.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// comparators report whether a sorts before b in ascending order.
var comparators = map[SortField]func(a, b RegionDay) bool{
	SortByTotalCases:     func(a, b RegionDay) bool { return a.TotalPositiveCases < b.TotalPositiveCases },
	SortByRegionName:     func(a, b RegionDay) bool { return a.RegionName < b.RegionName },
	SortByRegionCode:     func(a, b RegionDay) bool { return a.RegionCode < b.RegionCode },
	SortBySubmissionDate: func(a, b RegionDay) bool { return a.SubmissionDate.Before(b.SubmissionDate) },
}

// SortRows orders rows in place according to opts. Unrecognized fields fall
// back to the default order rather than failing.
func SortRows(rows []RegionDay, opts SortOptions) {
	less, ok := comparators[opts.Field]
	if !ok {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].TotalPositiveCases != rows[j].TotalPositiveCases {
				return rows[i].TotalPositiveCases > rows[j].TotalPositiveCases
			}
			return rows[i].RegionName < rows[j].RegionName
		})
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if opts.Order == SortAsc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
}
