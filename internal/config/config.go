package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Preset adds or overrides a built-in directory preset.
type Preset struct {
	Key           string `yaml:"key"`
	Query         string `yaml:"q,omitempty"`
	Category      string `yaml:"category,omitempty"`
	Cost          string `yaml:"cost,omitempty"`
	Accessibility string `yaml:"accessibility,omitempty"`
	City          string `yaml:"city,omitempty"`
}

type SearchConfig struct {
	Engine string `yaml:"engine"`
	Region string `yaml:"region,omitempty"`
}

type CacheConfig struct {
	Prefix      string   `yaml:"prefix"`
	Version     string   `yaml:"version"`
	SkipWaiting bool     `yaml:"skip_waiting"`
	OfflinePage string   `yaml:"offline_page"`
	Shell       []string `yaml:"shell"`
}

type Config struct {
	Dataset      string       `yaml:"dataset"`
	Origin       string       `yaml:"origin"`
	Listen       string       `yaml:"listen"`
	Locale       string       `yaml:"locale"`
	Debounce     string       `yaml:"debounce"`
	HeaderOffset int          `yaml:"header_offset"`
	Search       SearchConfig `yaml:"search"`
	Presets      []Preset     `yaml:"presets,omitempty"`
	Cache        CacheConfig  `yaml:"cache"`
}

func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d < 0 {
		return 160 * time.Millisecond
	}
	return d
}

// GetHeaderOffset returns the scroll offset, defaulting to 72.
func (c *Config) GetHeaderOffset() int {
	if c.HeaderOffset <= 0 {
		return 72
	}
	return c.HeaderOffset
}

func (c *Config) GetLocale() string {
	if c.Locale == "" {
		return "en-US"
	}
	return c.Locale
}

// DatasetSource resolves the dataset location. Relative paths are resolved
// against the origin when the origin is set and the path does not exist locally.
func (c *Config) DatasetSource() string {
	if c.Dataset == "" {
		return "data/resources.json"
	}
	if isHTTP(c.Dataset) || c.Origin == "" {
		return c.Dataset
	}
	if _, err := os.Stat(c.Dataset); err == nil {
		return c.Dataset
	}
	base, err := url.Parse(c.Origin)
	if err != nil {
		return c.Dataset
	}
	ref, err := url.Parse(c.Dataset)
	if err != nil {
		return c.Dataset
	}
	return base.ResolveReference(ref).String()
}

// CacheName is the identifier reported by the coordinator's version message.
func (c *Config) CacheName() string {
	return c.Cache.Prefix + "-" + c.Cache.Version
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "resourcehub", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "resourcehub", "offline.db")
}

// LogPath is where interactive commands write their log, away from the terminal.
func LogPath() string {
	return filepath.Join(xdg.StateHome, "resourcehub", "resourcehub.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: embedded defaults still apply if the write fails
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Decode over the defaults so omitted keys keep their default values.
	cfg := *defaults
	cfg.Presets = nil
	cfg.Cache.Shell = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(cfg.Cache.Shell) == 0 {
		cfg.Cache.Shell = defaults.Cache.Shell
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func validate(cfg *Config) error {
	if cfg.Origin != "" {
		u, err := url.Parse(cfg.Origin)
		if err != nil {
			return fmt.Errorf("origin: invalid url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("origin: url scheme must be http or https, got %q", u.Scheme)
		}
	}
	if cfg.Search.Engine != "" && !isHTTP(cfg.Search.Engine) {
		return fmt.Errorf("search.engine: must be an http or https url, got %q", cfg.Search.Engine)
	}
	if cfg.Debounce != "" {
		if _, err := time.ParseDuration(cfg.Debounce); err != nil {
			return fmt.Errorf("debounce: %w", err)
		}
	}
	if cfg.Cache.Prefix == "" {
		return fmt.Errorf("cache.prefix is required")
	}
	if cfg.Cache.Version == "" {
		return fmt.Errorf("cache.version is required")
	}
	if len(cfg.Cache.Shell) == 0 {
		return fmt.Errorf("cache.shell must list at least one asset")
	}
	seen := make(map[string]bool)
	for i, p := range cfg.Presets {
		if p.Key == "" {
			return fmt.Errorf("preset %d: key is required", i)
		}
		if seen[p.Key] {
			return fmt.Errorf("preset %q: duplicate key", p.Key)
		}
		seen[p.Key] = true
	}
	return nil
}
