// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/divyanshwrite/Philippines-Automation/internal/archive"
	"github.com/divyanshwrite/Philippines-Automation/internal/classify"
	"github.com/divyanshwrite/Philippines-Automation/internal/crawling"
	"github.com/divyanshwrite/Philippines-Automation/internal/db"
	"github.com/divyanshwrite/Philippines-Automation/internal/fetch"
	"github.com/divyanshwrite/Philippines-Automation/internal/gcp"
	"github.com/divyanshwrite/Philippines-Automation/internal/ingestion"
	"github.com/divyanshwrite/Philippines-Automation/internal/listing"
	"github.com/divyanshwrite/Philippines-Automation/internal/metrics"
	"github.com/divyanshwrite/Philippines-Automation/internal/retry"
	"github.com/divyanshwrite/Philippines-Automation/internal/tracker"
	"github.com/divyanshwrite/Philippines-Automation/internal/types"
)

// Store backends.
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabaseURL   = "DATABASE_URL"
	EnvTargetYears   = "GUIDELINE_TARGET_YEARS"
	EnvTrackerPath   = "GUIDELINE_TRACKER_PATH"
	EnvFirestoreProj = "FIRESTORE_PROJECT_ID"
	EnvPushgateway   = "PUSHGATEWAY_URL"
	EnvLogLevel      = "LOG_LEVEL"
)

// Config is the full agent configuration. Files are YAML; JSON also loads.
type Config struct {
	Listing    ListingConfig    `yaml:"listing"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Classify   ClassifyConfig   `yaml:"classify"`
	Store      StoreConfig      `yaml:"store"`
	Tracker    TrackerConfig    `yaml:"tracker"`
	Categories CategoriesConfig `yaml:"categories"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// ListingConfig configures the REST listing walk.
type ListingConfig struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	PageSize  int           `yaml:"page_size" validate:"min=1,max=100"`
	MaxPages  int           `yaml:"max_pages" validate:"min=1"`
	PageDelay time.Duration `yaml:"page_delay" validate:"min=0"`
}

// FetchConfig configures detail-page fetching.
type FetchConfig struct {
	Timeout          time.Duration `yaml:"timeout" validate:"min=0"`
	UserAgent        string        `yaml:"user_agent"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes" validate:"min=0"`
	MinContentLength int           `yaml:"min_content_length" validate:"min=0"`
	BrowserFallback  bool          `yaml:"browser_fallback"`
	BrowserTimeout   time.Duration `yaml:"browser_timeout" validate:"min=0"`
	Retry            retry.Policy  `yaml:"retry"`
}

// IngestionConfig configures the coordinator.
type IngestionConfig struct {
	ItemDelay   time.Duration `yaml:"item_delay" validate:"min=0"`
	Country     string        `yaml:"country" validate:"required"`
	Agency      string        `yaml:"agency" validate:"required"`
	TargetYears []string      `yaml:"target_years" validate:"dive,len=4,numeric"`
}

// ClassifyConfig extends the default classification rules.
type ClassifyConfig struct {
	Separator     string   `yaml:"separator"`
	ExtraRoster   []string `yaml:"extra_roster"`
	ExtraPatterns []string `yaml:"extra_patterns"`
}

// StoreConfig selects and configures the upsert store.
type StoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=postgres firestore memory"`
	DatabaseURL string `yaml:"database_url"`
	Schema      string `yaml:"schema"`
	Table       string `yaml:"table"`
	ProjectID   string `yaml:"project_id"`
	Collection  string `yaml:"collection"`
}

// TrackerConfig locates the processed-URL log.
type TrackerConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// CategoriesConfig configures the archive-page crawl.
type CategoriesConfig struct {
	Enabled   bool          `yaml:"enabled"`
	URLs      []string      `yaml:"urls" validate:"dive,url"`
	PageDelay time.Duration `yaml:"page_delay" validate:"min=0"`
}

// ArchiveConfig configures the optional text archive. Dir and Bucket are
// mutually exclusive.
type ArchiveConfig struct {
	Dir    string `yaml:"dir"`
	Bucket string `yaml:"bucket" validate:"excluded_with=Dir"`
	Prefix string `yaml:"prefix"`
	Source string `yaml:"source"`
}

// MetricsConfig configures the Pushgateway push at the end of a run.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
	Job            string `yaml:"job"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	httpDefaults := fetch.DefaultOptions()
	listingDefaults := listing.DefaultOptions()
	recordDefaults := ingestion.DefaultRecordOptions()

	return &Config{
		Listing: ListingConfig{
			BaseURL:   listingDefaults.BaseURL,
			PageSize:  listingDefaults.PageSize,
			MaxPages:  listingDefaults.MaxPages,
			PageDelay: listingDefaults.PageDelay,
		},
		Fetch: FetchConfig{
			Timeout:          httpDefaults.Timeout,
			UserAgent:        httpDefaults.UserAgent,
			MaxBodyBytes:     httpDefaults.MaxBodyBytes,
			MinContentLength: fetch.DefaultMinContentLength,
			BrowserTimeout:   fetch.DefaultBrowserTimeout,
			Retry:            retry.Fixed(3, 2*time.Second),
		},
		Ingestion: IngestionConfig{
			ItemDelay: ingestion.DefaultItemDelay,
			Country:   recordDefaults.Country,
			Agency:    recordDefaults.Agency,
		},
		Classify: ClassifyConfig{
			Separator: classify.DefaultSeparator,
		},
		Store: StoreConfig{
			Backend:    BackendPostgres,
			Schema:     db.DefaultSchema,
			Table:      db.DefaultTable,
			Collection: gcp.DefaultCollection,
		},
		Tracker: TrackerConfig{
			Path: tracker.DefaultPath,
		},
		Categories: CategoriesConfig{
			URLs:      append([]string{}, crawling.DefaultArchiveURLs...),
			PageDelay: crawling.DefaultPageDelay,
		},
		Archive: ArchiveConfig{
			Prefix: gcp.DefaultArchivePrefix,
			Source: archive.DefaultSource,
		},
		Metrics: MetricsConfig{
			Job: metrics.DefaultJob,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads the file at path over the defaults.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the environment. Unset or empty variables
// leave the field alone.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := os.Getenv(EnvTargetYears); v != "" {
		c.Ingestion.TargetYears = SplitList(v)
	}
	if v := os.Getenv(EnvTrackerPath); v != "" {
		c.Tracker.Path = v
	}
	if v := os.Getenv(EnvFirestoreProj); v != "" {
		c.Store.ProjectID = v
	}
	if v := os.Getenv(EnvPushgateway); v != "" {
		c.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation", fieldPath(fe.Namespace()), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	for _, y := range c.Ingestion.TargetYears {
		if !types.IsYear(y) {
			return fmt.Errorf("config error: target year %q must be 4 digits", y)
		}
	}

	switch c.Store.Backend {
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config error: 'store.database_url' (or %s) is required for the postgres backend", EnvDatabaseURL)
		}
	case BackendFirestore:
		if c.Store.ProjectID == "" {
			return fmt.Errorf("config error: 'store.project_id' (or %s) is required for the firestore backend", EnvFirestoreProj)
		}
	}

	if c.Categories.Enabled && len(c.Categories.URLs) == 0 {
		return fmt.Errorf("config error: 'categories.urls' is empty but categories are enabled")
	}

	return nil
}

// Window returns the configured year window, or the current and previous
// calendar year at now when none is configured.
func (c *Config) Window(now time.Time) (types.YearWindow, error) {
	years := c.Ingestion.TargetYears
	if len(years) == 0 {
		years = types.CurrentAndPreviousYear(now)
	}
	return types.NewYearWindow(years...)
}

// Table returns the Postgres table the store writes to.
func (c *Config) Table() db.Table {
	t := db.DefaultGuidelinesTable()
	if c.Store.Schema != "" {
		t.Schema = c.Store.Schema
	}
	if c.Store.Table != "" {
		t.Name = c.Store.Table
	}
	return t
}

// ListingOptions maps the listing section onto paginator options.
func (c *Config) ListingOptions() listing.Options {
	opts := listing.DefaultOptions()
	opts.BaseURL = c.Listing.BaseURL
	opts.PageSize = c.Listing.PageSize
	opts.MaxPages = c.Listing.MaxPages
	opts.PageDelay = c.Listing.PageDelay
	opts.HTTP = c.HTTPOptions()
	return opts
}

// HTTPOptions maps the fetch section onto per-request options.
func (c *Config) HTTPOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if c.Fetch.Timeout > 0 {
		opts.Timeout = c.Fetch.Timeout
	}
	if c.Fetch.UserAgent != "" {
		opts.UserAgent = c.Fetch.UserAgent
	}
	if c.Fetch.MaxBodyBytes > 0 {
		opts.MaxBodyBytes = c.Fetch.MaxBodyBytes
	}
	return opts
}

// FetcherOptions maps the fetch section onto detail fetcher options.
func (c *Config) FetcherOptions() fetch.FetcherOptions {
	return fetch.FetcherOptions{
		HTTP:             c.HTTPOptions(),
		MinContentLength: c.Fetch.MinContentLength,
		BrowserFallback:  c.Fetch.BrowserFallback,
		BrowserTimeout:   c.Fetch.BrowserTimeout,
	}
}

// Rules returns the classifier rules with any configured extensions.
func (c *Config) Rules() classify.Rules {
	rules := classify.DefaultRules().Extend(c.Classify.ExtraRoster, c.Classify.ExtraPatterns)
	if c.Classify.Separator != "" {
		rules.Separator = c.Classify.Separator
	}
	return rules
}

// RecordOptions returns the constant record fields.
func (c *Config) RecordOptions() ingestion.RecordOptions {
	return ingestion.RecordOptions{Country: c.Ingestion.Country, Agency: c.Ingestion.Agency}
}

// SplitList splits a comma list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// fieldPath turns "Config.Listing.PageSize" into "Listing.PageSize".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
