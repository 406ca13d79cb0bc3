package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divyanshwrite/Philippines-Automation/internal/listing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, listing.DefaultBaseURL, cfg.Listing.BaseURL)
	assert.Equal(t, 100, cfg.Listing.PageSize)
	assert.Equal(t, 20, cfg.Listing.MaxPages)
	assert.Equal(t, 500*time.Millisecond, cfg.Listing.PageDelay)
	assert.Equal(t, 800*time.Millisecond, cfg.Ingestion.ItemDelay)
	assert.Equal(t, 3, cfg.Fetch.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Fetch.Retry.Delay)
	assert.Equal(t, 50, cfg.Fetch.MinContentLength)
	assert.Equal(t, "processed_urls.txt", cfg.Tracker.Path)
	assert.Equal(t, "Philippines", cfg.Ingestion.Country)
	assert.Equal(t, "FDA Philippines", cfg.Ingestion.Agency)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "source.medical_guidelines", cfg.Table().String())
	assert.False(t, cfg.Categories.Enabled)
	assert.NotEmpty(t, cfg.Categories.URLs)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "agent.yaml", `
listing:
  max_pages: 5
  page_delay: 250ms
ingestion:
  target_years: ["2025"]
  item_delay: 1s
store:
  backend: memory
  table: guidelines_test
fetch:
  retry:
    max_attempts: 2
    delay: 100ms
categories:
  enabled: true
  urls:
    - https://www.fda.gov.ph/archives/
archive:
  dir: /tmp/fda-archive
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Listing.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Listing.PageDelay)
	assert.Equal(t, 100, cfg.Listing.PageSize, "unset fields keep defaults")
	assert.Equal(t, []string{"2025"}, cfg.Ingestion.TargetYears)
	assert.Equal(t, time.Second, cfg.Ingestion.ItemDelay)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "source.guidelines_test", cfg.Table().String())
	assert.Equal(t, 2, cfg.Fetch.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Fetch.Retry.Delay)
	assert.Equal(t, []string{"https://www.fda.gov.ph/archives/"}, cfg.Categories.URLs)
	assert.Equal(t, "/tmp/fda-archive", cfg.Archive.Dir)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeConfig(t, "agent.json", `{"store": {"backend": "memory"}, "tracker": {"path": "state/urls.txt"}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "state/urls.txt", cfg.Tracker.Path)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig("/nonexistent/path/agent.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	path := writeConfig(t, "bad.yaml", "listing: [unclosed")
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://u:p@localhost:5432/guidelines")
	t.Setenv(EnvTargetYears, "2025, 2024,")
	t.Setenv(EnvTrackerPath, "/var/lib/agent/processed.txt")
	t.Setenv(EnvFirestoreProj, "fda-project")
	t.Setenv(EnvPushgateway, "http://pushgateway:9091")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "postgres://u:p@localhost:5432/guidelines", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"2025", "2024"}, cfg.Ingestion.TargetYears)
	assert.Equal(t, "/var/lib/agent/processed.txt", cfg.Tracker.Path)
	assert.Equal(t, "fda-project", cfg.Store.ProjectID)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.PushgatewayURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnv_EmptyLeavesDefaults(t *testing.T) {
	t.Setenv(EnvTrackerPath, "")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "processed_urls.txt", cfg.Tracker.Path)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Store.DatabaseURL = "postgres://localhost/guidelines"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with database", func(*Config) {}, ""},
		{"page size too large", func(c *Config) { c.Listing.PageSize = 101 }, "Listing.PageSize"},
		{"zero max pages", func(c *Config) { c.Listing.MaxPages = 0 }, "Listing.MaxPages"},
		{"bad base url", func(c *Config) { c.Listing.BaseURL = "not a url" }, "Listing.BaseURL"},
		{"bad year", func(c *Config) { c.Ingestion.TargetYears = []string{"25"} }, "TargetYears"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }, "Store.Backend"},
		{"postgres without url", func(c *Config) { c.Store.DatabaseURL = "" }, "store.database_url"},
		{"firestore without project", func(c *Config) { c.Store.Backend = BackendFirestore }, "store.project_id"},
		{"memory needs nothing", func(c *Config) { c.Store.Backend = BackendMemory; c.Store.DatabaseURL = "" }, ""},
		{"dir and bucket", func(c *Config) { c.Archive.Dir = "out"; c.Archive.Bucket = "b" }, "Archive.Bucket"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "Log.Level"},
		{"retry attempts", func(c *Config) { c.Fetch.Retry.MaxAttempts = 0 }, "MaxAttempts"},
		{"categories without urls", func(c *Config) { c.Categories.Enabled = true; c.Categories.URLs = nil }, "categories.urls"},
		{"bad pushgateway", func(c *Config) { c.Metrics.PushgatewayURL = "::" }, "Metrics.PushgatewayURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	cfg := Default()
	w, err := cfg.Window(now)
	require.NoError(t, err)
	assert.Equal(t, "2025/2024", w.String())

	cfg.Ingestion.TargetYears = []string{"2023"}
	w, err = cfg.Window(now)
	require.NoError(t, err)
	assert.Equal(t, "2023", w.String())
}

func TestRules(t *testing.T) {
	cfg := Default()
	cfg.Classify.ExtraRoster = []string{"FDA Bulletin No."}
	cfg.Classify.ExtraPatterns = []string{"public notice"}

	rules := cfg.Rules()
	assert.Contains(t, rules.Roster, "FDA Bulletin No.")
	assert.Contains(t, rules.Roster, "FDA Circular No.")
	assert.Contains(t, rules.Patterns, "public notice")
	assert.Equal(t, "||", rules.Separator)
}

func TestListingOptions(t *testing.T) {
	cfg := Default()
	cfg.Listing.MaxPages = 3
	cfg.Fetch.UserAgent = "agent-test"

	opts := cfg.ListingOptions()
	assert.Equal(t, 3, opts.MaxPages)
	require.NotNil(t, opts.HTTP)
	assert.Equal(t, "agent-test", opts.HTTP.UserAgent)
	assert.Equal(t, "agent-test", cfg.FetcherOptions().HTTP.UserAgent)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"2025", "2024"}, SplitList(" 2025 ,2024"))
	assert.Nil(t, SplitList(" , "))
}
