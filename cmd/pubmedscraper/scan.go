package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"pubmedscraper/pkg/collate"
	"pubmedscraper/pkg/logger"
	"pubmedscraper/pkg/scraper"
	"pubmedscraper/pkg/ui"
)

var (
	// Scan flags
	terms           []string
	yearFrom        int
	yearTo          int
	maxPagesPerTerm int
	maxDuration     time.Duration
	rateLimit       float64
	foldCase        bool
	restart         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan every term, then collate the results",
	Long: `Scan every configured term from the saved checkpoint and, once the scan
is complete, merge the per-term files into the collated file.

An interrupted scan leaves the checkpoint in place and skips collation;
run the command again to continue.`,
	Example: `  # Scan with the default vocabulary and settings
  pubmedscraper run

  # Scan two terms over a wider year range
  pubmedscraper run --terms mirna,lncrna --year-from 2015 --year-to 2023

  # Stop after an hour and cap each term at 500 pages
  pubmedscraper run --max-duration 1h --max-pages-per-term 500`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, true)
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scan every term without collating",
	Long: `Scan every configured term from the saved checkpoint, appending the
emails found on each page to that term's file.

Use --restart to discard the checkpoint and scan from the first term.
Existing term files are appended to, not replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, false)
	},
}

var collateCmd = &cobra.Command{
	Use:   "collate",
	Short: "Merge the per-term files into one deduplicated file",
	Long: `Merge every per-term email file in the output directory into the
collated file and deduplicate it. An existing collated file is only
deduplicated, so running this twice gives the same result.`,
	Args: cobra.NoArgs,
	RunE: runCollate,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(collateCmd)

	addScanFlags(runCmd)
	addScanFlags(scrapeCmd)
	scrapeCmd.Flags().BoolVar(&restart, "restart", false, "discard the checkpoint and start from the first term")
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&terms, "terms", nil, "comma separated search terms (default: built-in vocabulary)")
	cmd.Flags().IntVar(&yearFrom, "year-from", 0, "first publication year to search")
	cmd.Flags().IntVar(&yearTo, "year-to", 0, "last publication year to search")
	cmd.Flags().IntVar(&maxPagesPerTerm, "max-pages-per-term", 0, "stop a term after this many pages (0 = unlimited)")
	cmd.Flags().DurationVar(&maxDuration, "max-duration", 0, "stop the scan after this long, keeping the checkpoint (0 = unlimited)")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "maximum requests per second (0 = unlimited)")
	cmd.Flags().BoolVar(&foldCase, "fold-case", false, "match email addresses case-insensitively")
}

func collectScanFlags(cmd *cobra.Command, flags map[string]interface{}) {
	set := cmd.Flags()
	if set.Changed("terms") {
		flags["terms"] = terms
	}
	if set.Changed("year-from") {
		flags["year-from"] = yearFrom
	}
	if set.Changed("year-to") {
		flags["year-to"] = yearTo
	}
	if set.Changed("max-pages-per-term") {
		flags["max-pages-per-term"] = maxPagesPerTerm
	}
	if set.Changed("max-duration") {
		flags["max-duration"] = maxDuration
	}
	if set.Changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if set.Changed("fold-case") {
		flags["fold-case"] = foldCase
	}
}

func runScan(cmd *cobra.Command, collateAfter bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if ui.IsTerminal(os.Stdout) {
		ui.PrintBanner()
	}

	s, err := scraper.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialise scraper: %w", err)
	}

	if cmd.Flags().Lookup("restart") != nil && restart {
		if err := s.Checkpoints().Reset(); err != nil {
			return err
		}
		ui.PrintWarning("Checkpoint discarded, scanning from the first term")
	}

	ui.PrintInfo("Output directory", s.Storage().GetOutputDir())
	ui.PrintInfo("Terms", fmt.Sprintf("%d", len(s.Terms())))
	ui.PrintHighlight("Scanning PubMed")

	summary, err := s.Run(cmd.Context())
	if err != nil {
		logger.WithError(err).Error("Scan failed")
		if summary != nil && len(summary.Terms) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.TermResultsTable(summary.Terms))
		}
		return fmt.Errorf("scan failed: %w", err)
	}
	ui.PrintRunSummary(summary)

	if !collateAfter || summary.Interrupted {
		return nil
	}

	result, err := collate.New(s.Storage(), logger.GetLogger()).Run()
	if err != nil {
		return fmt.Errorf("collation failed: %w", err)
	}
	ui.PrintCollateResult(result)
	return nil
}

func runCollate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	result, err := collate.New(store, logger.GetLogger()).Run()
	if err != nil {
		return fmt.Errorf("collation failed: %w", err)
	}
	ui.PrintCollateResult(result)
	return nil
}
