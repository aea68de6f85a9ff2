package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/", cfg.Search.BaseURL)
	assert.Equal(t, DefaultTerms, cfg.Search.Terms)
	assert.Equal(t, 200, cfg.Search.PageSize)
	assert.Equal(t, "simsearch2.ffrft", cfg.Search.Filter)
	assert.Equal(t, 2019, cfg.Search.YearFrom)
	assert.Equal(t, 2022, cfg.Search.YearTo)
	assert.Equal(t, "pubmed", cfg.Search.Format)

	assert.Equal(t, 5, cfg.Crawl.MaxConsecutiveFailures)
	assert.Equal(t, 10*time.Millisecond, cfg.Crawl.MinDelay)
	assert.Equal(t, 350*time.Millisecond, cfg.Crawl.MaxDelay)
	assert.Equal(t, 50, cfg.Crawl.ProgressInterval)
	assert.Zero(t, cfg.Crawl.MaxPagesPerTerm)
	assert.Zero(t, cfg.RateLimit.RequestsPerSecond, "rate ceiling is opt-in")
	assert.Equal(t, 1, cfg.RateLimit.Burst)

	assert.Equal(t, "checkpoint.txt", cfg.Output.CheckpointFile)
	assert.Equal(t, "all-emails.txt", cfg.Output.CollatedFile)
	assert.False(t, cfg.Extract.FoldCase)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigTermsAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.Terms[0] = "changed"

	assert.Equal(t, "lncrna", DefaultTerms[0])
}

func TestResolvedPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Directory = "/data/out"

	assert.Equal(t, filepath.Join("/data/out", "checkpoint.txt"), cfg.CheckpointPath())
	assert.Equal(t, filepath.Join("/data/out", "all-emails.txt"), cfg.CollatedPath())

	cfg.Output.CheckpointFile = "/var/lib/scan/checkpoint.txt"
	assert.Equal(t, "/var/lib/scan/checkpoint.txt", cfg.CheckpointPath())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PUBMEDSCRAPER_TERMS", "mirna, lncrna ,")
	t.Setenv("PUBMEDSCRAPER_YEAR_FROM", "2015")
	t.Setenv("PUBMEDSCRAPER_YEAR_TO", "2020")
	t.Setenv("PUBMEDSCRAPER_MAX_FAILURES", "3")
	t.Setenv("PUBMEDSCRAPER_MAX_PAGES_PER_TERM", "40")
	t.Setenv("PUBMEDSCRAPER_MAX_DURATION", "2h")
	t.Setenv("PUBMEDSCRAPER_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("PUBMEDSCRAPER_OUTPUT_DIR", "/tmp/emails")
	t.Setenv("PUBMEDSCRAPER_FOLD_CASE", "TRUE")
	t.Setenv("PUBMEDSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, []string{"mirna", "lncrna"}, cfg.Search.Terms)
	assert.Equal(t, 2015, cfg.Search.YearFrom)
	assert.Equal(t, 2020, cfg.Search.YearTo)
	assert.Equal(t, 3, cfg.Crawl.MaxConsecutiveFailures)
	assert.Equal(t, 40, cfg.Crawl.MaxPagesPerTerm)
	assert.Equal(t, 2*time.Hour, cfg.Crawl.MaxDuration)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "/tmp/emails", cfg.Output.Directory)
	assert.True(t, cfg.Extract.FoldCase)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidNumbers(t *testing.T) {
	t.Setenv("PUBMEDSCRAPER_YEAR_FROM", "twenty")
	t.Setenv("PUBMEDSCRAPER_MAX_DURATION", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUBMEDSCRAPER_YEAR_FROM")
	assert.Contains(t, err.Error(), "PUBMEDSCRAPER_MAX_DURATION")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no terms", func(c *Config) { c.Search.Terms = nil }, true},
		{"blank term", func(c *Config) { c.Search.Terms = []string{"mrna", "  "} }, true},
		{"term with slash", func(c *Config) { c.Search.Terms = []string{"mrna/lncrna"} }, true},
		{"term with backslash", func(c *Config) { c.Search.Terms = []string{`mrna\lncrna`} }, true},
		{"term escaping output dir", func(c *Config) { c.Search.Terms = []string{"..", "mrna"} }, true},
		{"term with punctuation", func(c *Config) { c.Search.Terms = []string{"rna-seq (human)", "mirna.1"} }, false},
		{"bad base url", func(c *Config) { c.Search.BaseURL = "not a url" }, true},
		{"zero page size", func(c *Config) { c.Search.PageSize = 0 }, true},
		{"inverted years", func(c *Config) { c.Search.YearFrom = 2023 }, true},
		{"negative failures", func(c *Config) { c.Crawl.MaxConsecutiveFailures = -1 }, true},
		{"max delay below min", func(c *Config) { c.Crawl.MaxDelay = time.Millisecond }, true},
		{"zero timeout", func(c *Config) { c.Crawl.RequestTimeout = 0 }, true},
		{"zero progress interval", func(c *Config) { c.Crawl.ProgressInterval = 0 }, true},
		{"rate limit without burst", func(c *Config) {
			c.RateLimit.RequestsPerSecond = 5
			c.RateLimit.Burst = 0
		}, true},
		{"rate limit disabled without burst", func(c *Config) {
			c.RateLimit.RequestsPerSecond = 0
			c.RateLimit.Burst = 0
		}, false},
		{"collated file with term suffix", func(c *Config) { c.Output.CollatedFile = "all.emails.txt" }, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":             "/flag/output",
		"log-level":          "error",
		"terms":              []string{"circrna"},
		"year-from":          2010,
		"year-to":            2011,
		"max-pages-per-term": 12,
		"max-duration":       30 * time.Minute,
		"rate-limit":         1.5,
		"fold-case":          true,
	})

	assert.Equal(t, "/flag/output", cfg.Output.Directory)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, []string{"circrna"}, cfg.Search.Terms)
	assert.Equal(t, 2010, cfg.Search.YearFrom)
	assert.Equal(t, 2011, cfg.Search.YearTo)
	assert.Equal(t, 12, cfg.Crawl.MaxPagesPerTerm)
	assert.Equal(t, 30*time.Minute, cfg.Crawl.MaxDuration)
	assert.Equal(t, 1.5, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.Extract.FoldCase)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Search.Terms = []string{"mrna", "circular rna"}
	cfg.Crawl.MaxDelay = time.Second
	cfg.Output.Directory = "/srv/emails"

	require.NoError(t, cfg.Save(configPath))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, []string{"mrna", "circular rna"}, loaded.Search.Terms)
	assert.Equal(t, time.Second, loaded.Crawl.MaxDelay)
	assert.Equal(t, "/srv/emails", loaded.Output.Directory)
}

func TestLoadFromFilePartialOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `search:
  terms:
    - lincrna
crawl:
  max_delay: 500ms
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(configPath))

	assert.Equal(t, []string{"lincrna"}, cfg.Search.Terms)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawl.MaxDelay)
	// untouched keys keep their defaults
	assert.Equal(t, 200, cfg.Search.PageSize)
	assert.Equal(t, 10*time.Millisecond, cfg.Crawl.MinDelay)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("search: [unclosed"), 0644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(configPath))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("output:\n  directory: from-file\n"), 0644))

	t.Setenv("HOME", dir)
	t.Setenv("PUBMEDSCRAPER_LOG_LEVEL", "warn")

	cfg, err := Load(configPath, map[string]interface{}{"output": "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Output.Directory)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PUBMEDSCRAPER_LOG_LEVEL", "chatty")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
