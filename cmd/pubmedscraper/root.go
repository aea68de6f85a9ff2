package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"pubmedscraper/pkg/config"
	"pubmedscraper/pkg/logger"
	"pubmedscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	outputDir  string
	noColor    bool
)

// rootCmd runs a full scan followed by collation when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "pubmedscraper",
	Short: "Harvest author email addresses from PubMed search results",
	Long: `pubmedscraper pages through PubMed search results for a list of terms,
extracts every email address it finds and writes them to one file per term.
Once every term is scanned the per-term files are merged into a single
deduplicated file.

Progress is checkpointed after every page, so an interrupted scan picks up
where it stopped. Two instances must not share an output directory.

Running pubmedscraper without a subcommand is the same as 'pubmedscraper run'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ConfigureColor(noColor)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, true)
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./pubmedscraper.yaml or ~/.config/pubmedscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "directory for term files, the checkpoint and the collated file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	addScanFlags(rootCmd)

	rootCmd.SetVersionTemplate(`pubmedscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the config file, environment and any flags the user set,
// then initialises the global logger from the result
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]interface{})
	set := cmd.Flags()

	if set.Changed("output") {
		flags["output"] = outputDir
	}
	if set.Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if set.Lookup("terms") != nil {
		collectScanFlags(cmd, flags)
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialise logger: %w", err)
	}
	logger.WithField("version", version).Debug("pubmedscraper starting")

	return cfg, nil
}
