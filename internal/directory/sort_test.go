package directory

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSortNameAscLocaleAware(t *testing.T) {
	ds := Dataset{{Name: "bob"}, {Name: "Cy"}, {Name: "Ana"}, {Name: "Élodie"}, {Name: "Ed"}}
	got := names(Sort(ds, SortNameAsc, nil))
	want := []string{"Ana", "bob", "Cy", "Ed", "Élodie"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("name-asc (-want +got):\n%s", diff)
	}
}

func TestSortNameDescIsReverseWithoutTies(t *testing.T) {
	ds := sampleDataset()
	asc := names(Sort(ds, SortNameAsc, nil))
	desc := names(Sort(ds, SortNameDesc, nil))
	slices.Reverse(desc)
	if diff := cmp.Diff(asc, desc); diff != "" {
		t.Errorf("name-desc is not the reverse of name-asc (-asc +reversed desc):\n%s", diff)
	}
}

func TestSortIsStable(t *testing.T) {
	ds := Dataset{
		{Name: "First", City: "Austin"},
		{Name: "Second", City: "Dallas"},
		{Name: "Third", City: "Austin"},
		{Name: "Fourth", City: "Austin"},
	}
	got := names(Sort(ds, SortCityAsc, nil))
	want := []string{"First", "Third", "Fourth", "Second"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("city-asc stability (-want +got):\n%s", diff)
	}

	got = names(Sort(ds, SortCityDesc, nil))
	want = []string{"Second", "First", "Third", "Fourth"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("city-desc stability (-want +got):\n%s", diff)
	}
}

func TestSortMissingFieldsAsEmpty(t *testing.T) {
	ds := Dataset{{Name: "B", Category: "Legal"}, {Name: "A"}, {Name: "C", Category: "Food"}}
	got := names(Sort(ds, SortCategoryAsc, nil))
	want := []string{"A", "C", "B"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("category-asc (-want +got):\n%s", diff)
	}
}

func TestSortUpdatedDescInvalidLast(t *testing.T) {
	ds := Dataset{
		{Name: "bad", Updated: "someday"},
		{Name: "old", Updated: "2023-01-01"},
		{Name: "none"},
		{Name: "new", Updated: "2025-06-30T10:00:00Z"},
		{Name: "mid", Updated: "March 3, 2024"},
	}
	got := names(Sort(ds, SortUpdatedDesc, nil))
	want := []string{"new", "mid", "old", "bad", "none"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("updated-desc (-want +got):\n%s", diff)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	ds := Dataset{{Name: "b"}, {Name: "a"}}
	Sort(ds, SortNameAsc, nil)
	if ds[0].Name != "b" {
		t.Error("Sort mutated its input")
	}
}

func TestSortUnknownKeyFallsBackToName(t *testing.T) {
	ds := Dataset{{Name: "b"}, {Name: "a"}}
	got := names(Sort(ds, SortKey("bogus"), nil))
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("unknown sort key (-want +got):\n%s", diff)
	}
}
