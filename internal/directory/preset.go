package directory

import (
	"net/url"
	"sort"
)

// Preset is a canned filter configuration reachable through the "key" URL
// parameter. Unset fields mean "no filter".
type Preset struct {
	Query         string
	Category      string
	Cost          string
	Accessibility string
	City          string
}

// State returns the full filter state the preset stands for. Applying a
// preset replaces every field; nothing carries over from a prior state.
func (p Preset) State() FilterState {
	st := DefaultState()
	st.Query = p.Query
	st.Category = p.Category
	st.Cost = p.Cost
	st.Accessibility = p.Accessibility
	st.City = p.City
	return StateFromForm(st.Values())
}

// PresetKeyParam is the URL query parameter that selects a preset.
const PresetKeyParam = "key"

// Presets maps preset keys to their configuration.
type Presets map[string]Preset

// Lookup returns the preset for key.
func (p Presets) Lookup(key string) (Preset, bool) {
	if key == "" {
		return Preset{}, false
	}
	preset, ok := p[key]
	return preset, ok
}

// Keys returns preset keys in lexical order.
func (p Presets) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of p with overrides applied on top.
func (p Presets) With(overrides map[string]Preset) Presets {
	out := make(Presets, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// ResolveInitialState picks the filter state for a page load: a known preset
// key wins, otherwise the state is read from the form.
func ResolveInitialState(presets Presets, key string, form url.Values) FilterState {
	if preset, ok := presets.Lookup(key); ok {
		return preset.State()
	}
	return StateFromForm(form)
}

// DefaultPresets returns the built-in preset table.
func DefaultPresets() Presets {
	p := Presets{
		"spanish-clinics":  {Query: "spanish clinic es", Category: "Health"},
		"spanish-hotlines": {Query: "spanish hotline es", Category: "Mental Health"},
		"spanish-legal":    {Query: "spanish legal aid es", Category: "Legal"},
		"spanish-food":     {Query: "spanish food pantry", Category: "Food"},
		"spanish-housing":  {Query: "spanish housing", Category: "Housing"},

		"free-clinics":      {Query: "free clinic", Category: "Health", Cost: "Free"},
		"free-counseling":   {Query: "free counseling", Category: "Mental Health", Cost: "Free"},
		"free-meals":        {Query: "free meal pantry", Category: "Food", Cost: "Free"},
		"free-legal-aid":    {Query: "free legal aid", Category: "Legal", Cost: "Free"},
		"free-job-training": {Query: "free job training", Category: "Education", Cost: "Free"},

		"ged-prep":         {Query: "ged", Category: "Education"},
		"esl-classes":      {Query: "esl english", Category: "Education"},
		"job-certificates": {Query: "certificate", Category: "Education"},
		"college-aid":      {Query: "college aid", Category: "Education"},
		"apprenticeships":  {Query: "apprentice", Category: "Education"},

		"tenant-rights":       {Query: "tenant rights", Category: "Legal"},
		"immigration-help":    {Query: "immigration", Category: "Legal"},
		"record-clearing":     {Query: "expunction record clearing", Category: "Legal"},
		"consumer-protection": {Query: "consumer protection", Category: "Legal"},
		"family-law":          {Query: "family law", Category: "Legal"},

		"childcare":         {Query: "childcare", Category: "Family"},
		"after-school":      {Query: "after school", Category: "Family"},
		"diaper-banks":      {Query: "diaper", Category: "Family"},
		"parenting-classes": {Query: "parenting", Category: "Family"},
		"youth-jobs":        {Query: "youth jobs", Category: "Employment"},

		"utility-bill-help": {Query: "utility bill", Category: "Utilities"},
		"low-cost-internet": {Query: "internet", Category: "Utilities"},
		"discount-phone":    {Query: "phone", Category: "Utilities"},
		"bus-passes":        {Query: "bus pass", Category: "Transportation"},
		"gas-vouchers":      {Query: "gas voucher", Category: "Transportation"},
	}

	regions := map[string]string{
		"north":   "North Texas",
		"central": "Central Texas",
		"south":   "South Texas",
	}
	for slug, city := range regions {
		p[slug+"-food-banks"] = Preset{Query: "food bank", Category: "Food", City: city}
		p[slug+"-rent-help"] = Preset{Query: "rent help", Category: "Housing", City: city}
		p[slug+"-mental-health"] = Preset{Query: "counseling", Category: "Mental Health", City: city}
		p[slug+"-legal-aid"] = Preset{Query: "legal aid", Category: "Legal", City: city}
		p[slug+"-transportation"] = Preset{Query: "transport", Category: "Transportation", City: city}
	}

	cities := map[string]string{
		"austin":      "Austin",
		"dallas":      "Dallas",
		"san-antonio": "San Antonio",
		"houston":     "Houston",
		"fort-worth":  "Fort Worth",
		"el-paso":     "El Paso",
	}
	for slug, city := range cities {
		p[slug+"-food"] = Preset{Query: "food", Category: "Food", City: city}
		p[slug+"-housing"] = Preset{Query: "housing", Category: "Housing", City: city}
		p[slug+"-mental-health"] = Preset{Query: "counseling", Category: "Mental Health", City: city}
		p[slug+"-job-centers"] = Preset{Query: "job center", Category: "Employment", City: city}
		p[slug+"-legal-aid"] = Preset{Query: "legal aid", Category: "Legal", City: city}
	}
	return p
}
