package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by every environment variable the scraper reads
const EnvPrefix = "PUBMEDSCRAPER_"

// Config holds all configuration options for the PubMed email scraper
type Config struct {
	// Search query parameters and vocabulary
	Search SearchConfig `yaml:"search" json:"search"`

	// Crawl loop behaviour
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Request rate ceiling
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output files
	Output OutputConfig `yaml:"output" json:"output"`

	// Email extraction
	Extract ExtractConfig `yaml:"extract" json:"extract"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig holds the fixed part of the search query and the term vocabulary
type SearchConfig struct {
	BaseURL   string   `yaml:"base_url" json:"base_url"`
	Terms     []string `yaml:"terms" json:"terms"`
	PageSize  int      `yaml:"page_size" json:"page_size"`
	Filter    string   `yaml:"filter" json:"filter"`
	YearFrom  int      `yaml:"year_from" json:"year_from"`
	YearTo    int      `yaml:"year_to" json:"year_to"`
	Format    string   `yaml:"format" json:"format"`
	UserAgent string   `yaml:"user_agent" json:"user_agent"`
}

// CrawlConfig holds pagination loop settings
type CrawlConfig struct {
	// MaxConsecutiveFailures is the number of failed requests tolerated in a row;
	// the term is abandoned once the count goes above it.
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures" json:"max_consecutive_failures"`
	MinDelay               time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay               time.Duration `yaml:"max_delay" json:"max_delay"`
	RequestTimeout         time.Duration `yaml:"request_timeout" json:"request_timeout"`
	ProgressInterval       int           `yaml:"progress_interval" json:"progress_interval"`
	// MaxPagesPerTerm of 0 means unlimited
	MaxPagesPerTerm int `yaml:"max_pages_per_term" json:"max_pages_per_term"`
	// MaxDuration of 0 means unlimited
	MaxDuration time.Duration `yaml:"max_duration" json:"max_duration"`
}

// RateLimitConfig holds the request rate ceiling
type RateLimitConfig struct {
	// RequestsPerSecond of 0 disables the ceiling
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig holds output file locations
type OutputConfig struct {
	Directory      string `yaml:"directory" json:"directory"`
	CheckpointFile string `yaml:"checkpoint_file" json:"checkpoint_file"`
	CollatedFile   string `yaml:"collated_file" json:"collated_file"`
}

// ExtractConfig holds email extraction options
type ExtractConfig struct {
	FoldCase bool `yaml:"fold_case" json:"fold_case"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format"`
}

// DefaultTerms is the vocabulary searched when none is configured
var DefaultTerms = []string{
	"lncrna",
	"circular rna",
	"circrna",
	"microrna",
	"mirna",
	"lincrna",
	"mrna",
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	terms := make([]string, len(DefaultTerms))
	copy(terms, DefaultTerms)

	return &Config{
		Search: SearchConfig{
			BaseURL:   "https://pubmed.ncbi.nlm.nih.gov/",
			Terms:     terms,
			PageSize:  200,
			Filter:    "simsearch2.ffrft",
			YearFrom:  2019,
			YearTo:    2022,
			Format:    "pubmed",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Crawl: CrawlConfig{
			MaxConsecutiveFailures: 5,
			MinDelay:               10 * time.Millisecond,
			MaxDelay:               350 * time.Millisecond,
			RequestTimeout:         30 * time.Second,
			ProgressInterval:       50,
			MaxPagesPerTerm:        0,
			MaxDuration:            0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 0,
			Burst:             1,
		},
		Output: OutputConfig{
			Directory:      ".",
			CheckpointFile: "checkpoint.txt",
			CollatedFile:   "all-emails.txt",
		},
		Extract: ExtractConfig{
			FoldCase: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "auto",
		},
	}
}

// CheckpointPath resolves the checkpoint file against the output directory
func (c *Config) CheckpointPath() string {
	return c.resolve(c.Output.CheckpointFile)
}

// CollatedPath resolves the global email file against the output directory
func (c *Config) CollatedPath() string {
	return c.resolve(c.Output.CollatedFile)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Directory, name)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if terms := os.Getenv(EnvPrefix + "TERMS"); terms != "" {
		c.Search.Terms = splitList(terms)
	}
	if base := os.Getenv(EnvPrefix + "BASE_URL"); base != "" {
		c.Search.BaseURL = base
	}
	if userAgent := os.Getenv(EnvPrefix + "USER_AGENT"); userAgent != "" {
		c.Search.UserAgent = userAgent
	}
	if err := envInt("YEAR_FROM", &c.Search.YearFrom); err != nil {
		errs = append(errs, err)
	}
	if err := envInt("YEAR_TO", &c.Search.YearTo); err != nil {
		errs = append(errs, err)
	}
	if err := envInt("MAX_FAILURES", &c.Crawl.MaxConsecutiveFailures); err != nil {
		errs = append(errs, err)
	}
	if err := envInt("MAX_PAGES_PER_TERM", &c.Crawl.MaxPagesPerTerm); err != nil {
		errs = append(errs, err)
	}
	if v := os.Getenv(EnvPrefix + "MAX_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_DURATION: %w", EnvPrefix, err))
		} else {
			c.Crawl.MaxDuration = d
		}
	}
	if v := os.Getenv(EnvPrefix + "REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_SECOND: %w", EnvPrefix, err))
		} else {
			c.RateLimit.RequestsPerSecond = rps
		}
	}

	if outputDir := os.Getenv(EnvPrefix + "OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if foldCase := os.Getenv(EnvPrefix + "FOLD_CASE"); foldCase != "" {
		c.Extract.FoldCase = strings.ToLower(foldCase) == "true"
	}
	if logLevel := os.Getenv(EnvPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(EnvPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

func envInt(name string, dst *int) error {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = n
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"pubmedscraper.yaml",
		".pubmedscraper.yaml",
		".pubmedscraper.yml",
		filepath.Join(home, ".config", "pubmedscraper", "config.yaml"),
		filepath.Join(home, ".config", "pubmedscraper", "config.yml"),
		filepath.Join(home, ".pubmedscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Search
	if u, err := url.Parse(c.Search.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid search base URL %q", c.Search.BaseURL))
	}
	if len(c.Search.Terms) == 0 {
		errs = append(errs, errors.New("at least one search term is required"))
	}
	for i, term := range c.Search.Terms {
		if strings.TrimSpace(term) == "" {
			errs = append(errs, fmt.Errorf("search term %d is empty", i))
		}
		// terms name their output files
		if strings.ContainsAny(term, `/\`) || strings.Contains(term, "..") {
			errs = append(errs, fmt.Errorf("search term %q must not contain path separators or \"..\"", term))
		}
	}
	if c.Search.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Search.YearFrom > c.Search.YearTo {
		errs = append(errs, errors.New("year_from must not be after year_to"))
	}

	// Crawl
	if c.Crawl.MaxConsecutiveFailures < 0 {
		errs = append(errs, errors.New("max consecutive failures cannot be negative"))
	}
	if c.Crawl.MinDelay < 0 {
		errs = append(errs, errors.New("min delay cannot be negative"))
	}
	if c.Crawl.MaxDelay < c.Crawl.MinDelay {
		errs = append(errs, errors.New("max delay must not be below min delay"))
	}
	if c.Crawl.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Crawl.ProgressInterval <= 0 {
		errs = append(errs, errors.New("progress interval must be positive"))
	}
	if c.Crawl.MaxPagesPerTerm < 0 {
		errs = append(errs, errors.New("max pages per term cannot be negative"))
	}
	if c.Crawl.MaxDuration < 0 {
		errs = append(errs, errors.New("max duration cannot be negative"))
	}

	// Rate limit
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("burst must be positive when a rate limit is set"))
	}

	// Output
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
	}
	if c.Output.CollatedFile == "" {
		errs = append(errs, errors.New("collated file is required"))
	}
	if strings.HasSuffix(c.Output.CollatedFile, ".emails.txt") {
		errs = append(errs, errors.New("collated file must not use the per-term .emails.txt suffix"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validFormats := map[string]bool{
		"auto": true, "console": true, "json": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if terms, ok := flags["terms"].([]string); ok && len(terms) > 0 {
		c.Search.Terms = terms
	}
	if yearFrom, ok := flags["year-from"].(int); ok && yearFrom > 0 {
		c.Search.YearFrom = yearFrom
	}
	if yearTo, ok := flags["year-to"].(int); ok && yearTo > 0 {
		c.Search.YearTo = yearTo
	}
	if maxPages, ok := flags["max-pages-per-term"].(int); ok && maxPages >= 0 {
		c.Crawl.MaxPagesPerTerm = maxPages
	}
	if maxDuration, ok := flags["max-duration"].(time.Duration); ok && maxDuration >= 0 {
		c.Crawl.MaxDuration = maxDuration
	}
	if rps, ok := flags["rate-limit"].(float64); ok && rps >= 0 {
		c.RateLimit.RequestsPerSecond = rps
	}
	if foldCase, ok := flags["fold-case"].(bool); ok {
		c.Extract.FoldCase = foldCase
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pubmedscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
