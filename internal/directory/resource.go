package directory

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Resource is one directory entry. Fields are decoded leniently: a value of
// the wrong JSON type is treated as absent rather than failing the dataset.
type Resource struct {
	Name          string   `json:"name,omitempty"`
	Description   string   `json:"description,omitempty"`
	City          string   `json:"city,omitempty"`
	Category      string   `json:"category,omitempty"`
	Cost          string   `json:"cost,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Accessibility []string `json:"accessibility,omitempty"`
	URL           string   `json:"url,omitempty"`
	Logo          string   `json:"logo,omitempty"`
	Updated       string   `json:"updated,omitempty"`
}

// Dataset is the ordered resource collection loaded once per session.
type Dataset []Resource

// DisplayName returns the name used on cards.
func (r Resource) DisplayName() string {
	if strings.TrimSpace(r.Name) == "" {
		return "Untitled"
	}
	return r.Name
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// UpdatedAt parses the updated field. The second result is false when the
// value is absent or not a recognizable date.
func (r Resource) UpdatedAt() (time.Time, bool) {
	s := strings.TrimSpace(r.Updated)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Numeric values are epoch milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Resource{
		Name:          lenientString(raw["name"]),
		Description:   lenientString(raw["description"]),
		City:          lenientString(raw["city"]),
		Category:      lenientString(raw["category"]),
		Cost:          lenientString(raw["cost"]),
		Tags:          lenientStrings(raw["tags"]),
		Accessibility: lenientStrings(raw["accessibility"]),
		URL:           lenientString(raw["url"]),
		Logo:          lenientString(raw["logo"]),
		Updated:       lenientString(raw["updated"]),
	}
	return nil
}

// lenientString accepts strings and numbers; anything else is empty.
func lenientString(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		return n.String()
	}
	return ""
}

func lenientStrings(msg json.RawMessage) []string {
	if len(msg) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}
