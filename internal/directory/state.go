package directory

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SortKey selects the result ordering.
type SortKey string

const (
	SortNameAsc     SortKey = "name-asc"
	SortNameDesc    SortKey = "name-desc"
	SortCityAsc     SortKey = "city-asc"
	SortCityDesc    SortKey = "city-desc"
	SortCategoryAsc SortKey = "category-asc"
	SortUpdatedDesc SortKey = "updated-desc"
)

// SortKeys returns all sort keys in menu order.
func SortKeys() []SortKey {
	return []SortKey{SortNameAsc, SortNameDesc, SortCityAsc, SortCityDesc, SortCategoryAsc, SortUpdatedDesc}
}

// Valid reports whether k is one of the known sort keys.
func (k SortKey) Valid() bool {
	for _, known := range SortKeys() {
		if k == known {
			return true
		}
	}
	return false
}

// Form field names shared by every filter surface.
const (
	FieldQuery         = "q"
	FieldCategory      = "category"
	FieldCost          = "cost"
	FieldAccessibility = "accessibility"
	FieldCity          = "city"
	FieldInitial       = "initial"
	FieldSort          = "sort"
)

// FilterState is the complete set of filter and sort selections for one render.
type FilterState struct {
	Query         string
	Category      string
	Cost          string
	Accessibility string
	City          string
	Initial       string
	Sort          SortKey
}

// DefaultState has every filter empty and sorts by name.
func DefaultState() FilterState {
	return FilterState{Sort: SortNameAsc}
}

// StateFromForm reads a filter state from form values. The query is
// lowercased and trimmed, the initial is reduced to one uppercase letter and
// an unknown or missing sort falls back to name-asc.
func StateFromForm(form url.Values) FilterState {
	st := FilterState{
		Query:         strings.ToLower(strings.TrimSpace(form.Get(FieldQuery))),
		Category:      form.Get(FieldCategory),
		Cost:          form.Get(FieldCost),
		Accessibility: form.Get(FieldAccessibility),
		City:          form.Get(FieldCity),
		Initial:       normalizeInitial(form.Get(FieldInitial)),
		Sort:          SortKey(form.Get(FieldSort)),
	}
	if !st.Sort.Valid() {
		st.Sort = SortNameAsc
	}
	return st
}

// Values converts the state back to form values. Empty fields are omitted.
func (s FilterState) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set(FieldQuery, s.Query)
	set(FieldCategory, s.Category)
	set(FieldCost, s.Cost)
	set(FieldAccessibility, s.Accessibility)
	set(FieldCity, s.City)
	set(FieldInitial, s.Initial)
	if s.Sort != "" && s.Sort != SortNameAsc {
		v.Set(FieldSort, string(s.Sort))
	}
	return v
}

// IsEmpty reports whether no filter is active. Sort is not a filter.
func (s FilterState) IsEmpty() bool {
	return s.Query == "" && s.Category == "" && s.Cost == "" &&
		s.Accessibility == "" && s.City == "" && s.Initial == ""
}

func normalizeInitial(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}
