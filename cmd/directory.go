package cmd

import (
	"net/http"
	"net/url"
	"time"

	"github.com/matheuskafuri/resourcehub/internal/config"
	"github.com/matheuskafuri/resourcehub/internal/directory"
	"github.com/spf13/cobra"
)

var flagDataset string

// filterFlags mirrors the directory form fields on the command line.
type filterFlags struct {
	key           string
	query         string
	category      string
	cost          string
	accessibility string
	city          string
	initial       string
	sort          string
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	cmd.Flags().StringVar(&f.key, "key", "", "apply a preset (see 'resourcehub presets')")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "free-text search")
	cmd.Flags().StringVar(&f.category, "category", "", "exact category")
	cmd.Flags().StringVar(&f.cost, "cost", "", "exact cost")
	cmd.Flags().StringVar(&f.accessibility, "accessibility", "", "accessibility feature")
	cmd.Flags().StringVar(&f.city, "city", "", "exact city")
	cmd.Flags().StringVar(&f.initial, "initial", "", "first letter of the name")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort order: name-asc, name-desc, city-asc, city-desc, category-asc, updated-desc")
}

func (f filterFlags) values() url.Values {
	v := url.Values{}
	set := func(field, value string) {
		if value != "" {
			v.Set(field, value)
		}
	}
	set(directory.FieldQuery, f.query)
	set(directory.FieldCategory, f.category)
	set(directory.FieldCost, f.cost)
	set(directory.FieldAccessibility, f.accessibility)
	set(directory.FieldCity, f.city)
	set(directory.FieldInitial, f.initial)
	set(directory.FieldSort, f.sort)
	return v
}

// location is the deep link the engine starts from.
func (f filterFlags) location() *url.URL {
	u := &url.URL{Path: "/"}
	if f.key != "" {
		u.RawQuery = url.Values{directory.PresetKeyParam: {f.key}}.Encode()
	}
	return u
}

func datasetSource(c *config.Config) directory.Source {
	if flagDataset != "" {
		return directory.Source{Location: flagDataset}
	}
	return directory.Source{Location: c.DatasetSource()}
}

func newRenderer(c *config.Config) directory.Renderer {
	return directory.Renderer{
		Linker: directory.SearchLinker{Engine: c.Search.Engine, Region: c.Search.Region},
		Locale: directory.ParseLocale(c.GetLocale()),
	}
}

// presetsFor merges configured presets over the built-in table.
func presetsFor(c *config.Config) directory.Presets {
	overrides := make(map[string]directory.Preset, len(c.Presets))
	for _, p := range c.Presets {
		overrides[p.Key] = directory.Preset{
			Query:         p.Query,
			Category:      p.Category,
			Cost:          p.Cost,
			Accessibility: p.Accessibility,
			City:          p.City,
		}
	}
	return directory.DefaultPresets().With(overrides)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}
