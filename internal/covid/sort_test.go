package covid

import "testing"

func sampleRows() []RegionDay {
	return []RegionDay{
		{RegionCode: "13", RegionName: "Abruzzo", TotalPositiveCases: 40},
		{RegionCode: "12", RegionName: "Lazio", TotalPositiveCases: 350},
		{RegionCode: "09", RegionName: "Toscana", TotalPositiveCases: 40},
	}
}

func TestSortRows_DefaultOrder(t *testing.T) {
	rows := sampleRows()
	SortRows(rows, SortOptions{})

	want := []string{"Lazio", "Abruzzo", "Toscana"}
	for i, name := range want {
		if rows[i].RegionName != name {
			t.Errorf("rows[%d] = %q, want %q (cases desc, name asc)", i, rows[i].RegionName, name)
		}
	}
}

func TestSortRows_UnknownFieldFallsBack(t *testing.T) {
	rows := sampleRows()
	SortRows(rows, SortOptions{Field: "nonexistent_column", Order: SortAsc})

	if rows[0].RegionName != "Lazio" {
		t.Errorf("rows[0] = %q, want default order despite unknown field", rows[0].RegionName)
	}
}

func TestSortRows_ByRegionName(t *testing.T) {
	rows := sampleRows()
	SortRows(rows, SortOptions{Field: SortByRegionName, Order: SortAsc})

	want := []string{"Abruzzo", "Lazio", "Toscana"}
	for i, name := range want {
		if rows[i].RegionName != name {
			t.Errorf("rows[%d] = %q, want %q", i, rows[i].RegionName, name)
		}
	}

	SortRows(rows, SortOptions{Field: SortByRegionName, Order: SortDesc})
	if rows[0].RegionName != "Toscana" {
		t.Errorf("rows[0] = %q, want %q after desc sort", rows[0].RegionName, "Toscana")
	}
}

func TestSortRows_MissingOrderDefaultsToDesc(t *testing.T) {
	rows := sampleRows()
	SortRows(rows, SortOptions{Field: SortByTotalCases})

	if rows[0].TotalPositiveCases != 350 {
		t.Errorf("rows[0] total = %d, want 350 (desc by default)", rows[0].TotalPositiveCases)
	}
}
