package directory

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Filter returns the resources matching every active field of st, in
// dataset order. Empty fields match everything.
func Filter(ds Dataset, st FilterState) []Resource {
	out := make([]Resource, 0, len(ds))
	for _, r := range ds {
		if Matches(r, st) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether r satisfies all predicates of st.
func Matches(r Resource, st FilterState) bool {
	if st.Query != "" && !matchesQuery(r, st.Query) {
		return false
	}
	if st.Category != "" && r.Category != st.Category {
		return false
	}
	if st.Cost != "" && r.Cost != st.Cost {
		return false
	}
	if st.City != "" && r.City != st.City {
		return false
	}
	if st.Accessibility != "" && !slices.Contains(r.Accessibility, st.Accessibility) {
		return false
	}
	if st.Initial != "" && initialOf(r.Name) != st.Initial {
		return false
	}
	return true
}

func matchesQuery(r Resource, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.Description), q) ||
		strings.Contains(strings.ToLower(strings.Join(r.Tags, " ")), q)
}

func initialOf(name string) string {
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
