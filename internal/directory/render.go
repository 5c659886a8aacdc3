package directory

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

// MetaSeparator joins the parts of a card's meta line.
const MetaSeparator = " • "

// Pill summarizes one active filter.
type Pill struct {
	Label string
	Value string
}

// Text is the plain pill text.
func (p Pill) Text() string {
	return p.Label + ": " + p.Value
}

// HTML is the escaped pill markup.
func (p Pill) HTML() string {
	return `<span class="pill">` + html.EscapeString(p.Text()) + `</span>`
}

// Card is one rendered result.
type Card struct {
	Title       string
	Href        string
	Meta        string
	Description string
	Tags        string
	Logo        string
	// NoLogo selects the placeholder style instead of an image.
	NoLogo bool
}

// Notice is the single card shown in place of results.
type Notice struct {
	Title string
	Body  string
}

// Output is one complete render, built fully before it reaches a Target.
type Output struct {
	Cards []Card
	Pills []Pill
	Count string
	// Notice is set when there is nothing to list: no matches or a load error.
	Notice *Notice
	Err    error
}

// Target receives renders. Implementations can serve different layouts from
// the same engine.
type Target interface {
	SetResults(out Output)
	SetPills(pills []Pill)
	SetCount(count string)
}

// Committer is implemented by targets that buffer the setters and swap the
// visible output in one step.
type Committer interface {
	Commit()
}

// Renderer turns a dataset and filter state into an Output.
type Renderer struct {
	Linker SearchLinker
	Locale Locale
}

// CountText formats the result count.
func CountText(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// ActivePills returns one pill per non-empty filter field.
func ActivePills(st FilterState) []Pill {
	var pills []Pill
	add := func(label, v string) {
		if v != "" {
			pills = append(pills, Pill{Label: label, Value: v})
		}
	}
	add("Search", st.Query)
	add("City", st.City)
	add("Category", st.Category)
	add("Cost", st.Cost)
	add("Access", st.Accessibility)
	add("A–Z", st.Initial)
	return pills
}

// Render recomputes the full result list for st.
func (rd Renderer) Render(ds Dataset, st FilterState) Output {
	results := Sort(Filter(ds, st), st.Sort, rd.Locale.Collator())
	out := Output{
		Pills: ActivePills(st),
		Count: CountText(len(results)),
	}
	if len(results) == 0 {
		out.Notice = &Notice{
			Title: "No results",
			Body:  "Try clearing filters or using a different keyword.",
		}
		return out
	}
	out.Cards = make([]Card, 0, len(results))
	for _, r := range results {
		out.Cards = append(out.Cards, rd.Card(r))
	}
	return out
}

// RenderError is the output shown when the dataset could not be loaded.
func RenderError(err error) Output {
	msg := "Could not load resources."
	var le *LoadError
	if errors.As(err, &le) {
		msg = le.Message()
	}
	return Output{
		Count:  CountText(0),
		Notice: &Notice{Title: "Could not load resources", Body: msg},
		Err:    err,
	}
}

// Card materializes one resource. Text fields are raw; targets escape them.
func (rd Renderer) Card(r Resource) Card {
	c := Card{
		Title:       r.DisplayName(),
		Href:        rd.Linker.DisplayURL(r),
		Meta:        rd.metaLine(r),
		Description: r.Description,
		Tags:        tagLine(r.Tags),
	}
	if logo := strings.TrimSpace(r.Logo); logo != "" {
		c.Logo = logo
	} else {
		c.NoLogo = true
	}
	return c
}

func (rd Renderer) metaLine(r Resource) string {
	var bits []string
	for _, p := range []string{r.City, r.Category, r.Cost} {
		if p != "" {
			bits = append(bits, p)
		}
	}
	if t, ok := r.UpdatedAt(); ok {
		bits = append(bits, "updated "+rd.Locale.FormatDate(t))
	}
	return strings.Join(bits, MetaSeparator)
}

func tagLine(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, "#"+t)
		}
	}
	return strings.Join(out, " ")
}
