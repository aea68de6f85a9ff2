package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"pubmedscraper/pkg/config"
	"pubmedscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage pubmedscraper configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (PUBMEDSCRAPER_*, also read from .env)
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with every available option.

The file is written to ./pubmedscraper.yaml unless --config names another path.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and check it for invalid values.
The output directory and log file directory are created if missing.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# pubmedscraper configuration file
#
# Every option can also be set with a PUBMEDSCRAPER_ environment variable,
# for example PUBMEDSCRAPER_TERMS=mirna,lncrna or PUBMEDSCRAPER_OUTPUT_DIR=./out

search:
  base_url: "https://pubmed.ncbi.nlm.nih.gov/"
  # Terms are scanned in this order. Changing the list invalidates the checkpoint.
  terms:
    - lncrna
    - circular rna
    - circrna
    - microrna
    - mirna
    - lincrna
    - mrna
  page_size: 200
  filter: "simsearch2.ffrft"
  year_from: 2019
  year_to: 2022
  format: "pubmed"

crawl:
  # A term is abandoned once this many requests in a row have failed
  max_consecutive_failures: 5
  # Random pause between requests
  min_delay: 10ms
  max_delay: 350ms
  request_timeout: 30s
  # Log progress every N pages
  progress_interval: 50
  # 0 = unlimited
  max_pages_per_term: 0
  max_duration: 0s

rate_limit:
  # Ceiling on top of the random pause; 0 disables it
  requests_per_second: 0
  burst: 1

output:
  directory: "."
  # Relative names are resolved against the output directory
  checkpoint_file: "checkpoint.txt"
  collated_file: "all-emails.txt"

extract:
  fold_case: false

logging:
  # debug, info, warn, error
  level: "info"
  # auto, console, json
  format: "auto"
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "pubmedscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "1. Edit the search terms and output directory")
	fmt.Fprintln(cmd.OutOrStdout(), "2. Run 'pubmedscraper config validate' to check the configuration")
	fmt.Fprintln(cmd.OutOrStdout(), "3. Start scanning with 'pubmedscraper run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nConfiguration file: %s\n", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source != "" {
		ui.PrintInfo("Validating configuration", source)
	} else {
		ui.PrintInfo("Validating configuration", "defaults and environment")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var problems []string
	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d problem(s)", len(problems))
	}

	if cfg.Crawl.MaxPagesPerTerm == 0 && cfg.Crawl.MaxDuration == 0 {
		ui.PrintWarning("No page budget or max duration set, a scan runs until PubMed stops returning results")
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(cmd.OutOrStdout(), "\nConfiguration summary:")
	fmt.Fprintf(cmd.OutOrStdout(), "  Terms: %d\n", len(cfg.Search.Terms))
	fmt.Fprintf(cmd.OutOrStdout(), "  Years: %d-%d\n", cfg.Search.YearFrom, cfg.Search.YearTo)
	fmt.Fprintf(cmd.OutOrStdout(), "  Output directory: %s\n", cfg.Output.Directory)
	fmt.Fprintf(cmd.OutOrStdout(), "  Checkpoint: %s\n", cfg.CheckpointPath())
	fmt.Fprintf(cmd.OutOrStdout(), "  Rate limit: %g requests/second\n", cfg.RateLimit.RequestsPerSecond)
	fmt.Fprintf(cmd.OutOrStdout(), "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
