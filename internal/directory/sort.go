package directory

import (
	"slices"
	"time"
)

// Collator compares strings in a locale-aware order.
type Collator interface {
	CompareString(a, b string) int
}

// Sort returns a stably sorted copy of results. Missing string fields sort
// as "". For updated-desc, unparseable or missing dates sort after every
// valid date and keep their relative order.
func Sort(results []Resource, key SortKey, coll Collator) []Resource {
	out := slices.Clone(results)
	if coll == nil {
		coll = ParseLocale("en-US").Collator()
	}

	var cmp func(a, b Resource) int
	switch key {
	case SortNameDesc:
		cmp = func(a, b Resource) int { return coll.CompareString(b.Name, a.Name) }
	case SortCityAsc:
		cmp = func(a, b Resource) int { return coll.CompareString(a.City, b.City) }
	case SortCityDesc:
		cmp = func(a, b Resource) int { return coll.CompareString(b.City, a.City) }
	case SortCategoryAsc:
		cmp = func(a, b Resource) int { return coll.CompareString(a.Category, b.Category) }
	case SortUpdatedDesc:
		return sortByUpdated(out)
	default:
		cmp = func(a, b Resource) int { return coll.CompareString(a.Name, b.Name) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

func sortByUpdated(out []Resource) []Resource {
	type keyed struct {
		r     Resource
		t     time.Time
		valid bool
	}
	ks := make([]keyed, len(out))
	for i, r := range out {
		t, ok := r.UpdatedAt()
		ks[i] = keyed{r: r, t: t, valid: ok}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.valid && b.valid:
			return b.t.Compare(a.t)
		case a.valid:
			return -1
		case b.valid:
			return 1
		default:
			return 0
		}
	})
	for i := range ks {
		out[i] = ks[i].r
	}
	return out
}
