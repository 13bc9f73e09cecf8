package derive

import (
	"reflect"
	"testing"
	"time"

	"adminsum/internal/core"
)

func rec(name string, value float64, category string) core.Record {
	return core.Record{ID: name, Name: name, Value: value, Category: category}
}

func TestCategories(t *testing.T) {
	records := []core.Record{
		rec("Gaji", 5000000, "Keuangan"),
		rec("Kopi", -25000, ""),
		rec("Bonus", 100000, "Keuangan"),
	}
	got := Categories(records)
	want := []string{"Keuangan", Uncategorized}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Categories = %v, want %v", got, want)
	}
}

func TestCategoriesIgnoresFilters(t *testing.T) {
	records := []core.Record{
		rec("Gaji", 5000000, "Keuangan"),
		rec("Kopi", -25000, "Jajan"),
	}
	before := Categories(records)
	_ = Filtered(records, "Jajan", "gaji")
	after := Categories(records)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("category set changed after filtering: %v vs %v", before, after)
	}
}

func TestFiltered(t *testing.T) {
	records := []core.Record{
		rec("Gaji Bulanan", 5000000, "Keuangan"),
		rec("Kopi Pagi", -25000, ""),
		rec("Gajian Kedua", 1000000, "Keuangan"),
	}

	tests := []struct {
		name     string
		category string
		term     string
		want     []string
	}{
		{"all, no term", CategoryAll, "", []string{"Gaji Bulanan", "Kopi Pagi", "Gajian Kedua"}},
		{"all, whitespace term", CategoryAll, "   ", []string{"Gaji Bulanan", "Kopi Pagi", "Gajian Kedua"}},
		{"category only", "Keuangan", "", []string{"Gaji Bulanan", "Gajian Kedua"}},
		{"uncategorized placeholder", Uncategorized, "", []string{"Kopi Pagi"}},
		{"term only, case-insensitive", CategoryAll, "GAJI", []string{"Gaji Bulanan", "Gajian Kedua"}},
		{"category and term", "Keuangan", "kedua", []string{"Gajian Kedua"}},
		{"no match", "Keuangan", "kopi", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filtered(records, tt.category, tt.term)
			var names []string
			for _, r := range got {
				names = append(names, r.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Fatalf("Filtered = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestFilteredIdempotent(t *testing.T) {
	records := []core.Record{
		rec("Gaji", 5000000, "Keuangan"),
		rec("Kopi", -25000, ""),
	}
	once := Filtered(records, "Keuangan", "ga")
	twice := Filtered(once, "Keuangan", "ga")
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filtering twice changed the result: %v vs %v", once, twice)
	}
}

func TestFilteredDoesNotMutateInput(t *testing.T) {
	records := []core.Record{
		rec("B", 2, "x"),
		rec("A", 1, "y"),
	}
	snapshot := append([]core.Record(nil), records...)
	Filtered(records, "y", "a")
	if !reflect.DeepEqual(records, snapshot) {
		t.Fatalf("input mutated: %v", records)
	}
}

func TestStatsEmpty(t *testing.T) {
	got := Stats(nil)
	if got != (Summary{}) {
		t.Fatalf("Stats(nil) = %+v, want all zeroes", got)
	}
}

func TestStatsNegativeOnly(t *testing.T) {
	got := Stats([]core.Record{rec("a", -50, ""), rec("b", -10, "")})
	if got.Highest != -10 {
		t.Fatalf("Highest = %v, want -10", got.Highest)
	}
	if got.Sum != -60 || got.Count != 2 || got.Average != -30 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestLedgerScenario(t *testing.T) {
	records := []core.Record{
		rec("Gaji", 5000000, "Keuangan"),
		rec("Kopi", -25000, ""),
	}

	stats := Stats(Filtered(records, CategoryAll, ""))
	if stats.Sum != 4975000 {
		t.Errorf("Sum = %v, want 4975000", stats.Sum)
	}
	if stats.Count != 2 {
		t.Errorf("Count = %v, want 2", stats.Count)
	}
	if stats.Average != 2487500 {
		t.Errorf("Average = %v, want 2487500", stats.Average)
	}
	if stats.Highest != 5000000 {
		t.Errorf("Highest = %v, want 5000000", stats.Highest)
	}

	cats := Categories(records)
	want := []string{"Keuangan", "Tak Berkategori"}
	if !reflect.DeepEqual(cats, want) {
		t.Errorf("Categories = %v, want %v", cats, want)
	}
}

func TestFiltersCommute(t *testing.T) {
	records := []core.Record{
		rec("Gaji Bulanan", 5000000, "Keuangan"),
		rec("Kopi Pagi", -25000, ""),
		rec("Gajian Kedua", 1000000, "Keuangan"),
		rec("Kopi Sore", -30000, "Jajan"),
	}

	// Category then search versus search then category.
	catFirst := Filtered(Filtered(records, "Keuangan", ""), CategoryAll, "gaji")
	termFirst := Filtered(Filtered(records, CategoryAll, "gaji"), "Keuangan", "")
	if !reflect.DeepEqual(catFirst, termFirst) {
		t.Fatalf("filters do not commute: %v vs %v", catFirst, termFirst)
	}
}

func TestStatsUsesSignedValues(t *testing.T) {
	now := time.Now()
	records := []core.Record{
		{ID: "1", Name: "in", Value: 100, CreatedAt: now},
		{ID: "2", Name: "out", Value: -250, CreatedAt: now},
	}
	got := Stats(records)
	if got.Sum != -150 {
		t.Fatalf("Sum = %v, want -150", got.Sum)
	}
	if got.Highest != 100 {
		t.Fatalf("Highest = %v, want 100", got.Highest)
	}
}
