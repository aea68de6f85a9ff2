package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"pubmedscraper/pkg/checkpoint"
	"pubmedscraper/pkg/config"
	"pubmedscraper/pkg/storage"
	"pubmedscraper/pkg/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the checkpoint and per-term email counts",
	Long: `Show where the next scan will resume and how many unique emails each
term file currently holds. Nothing is fetched or modified.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func newStore(cfg *config.Config) (*storage.Manager, error) {
	store, err := storage.NewManager(cfg.Output.Directory, cfg.CollatedPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open output directory: %w", err)
	}
	return store, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cp, err := checkpoint.NewManager(cfg.CheckpointPath(), nil).Load()
	if err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	rows, err := ui.TermStatuses(cfg.Search.Terms, cp, store)
	if err != nil {
		return err
	}

	ui.PrintInfo("Checkpoint", ui.DescribeCheckpoint(cp))
	collated := cfg.CollatedPath()
	if store.Exists(collated) {
		ui.PrintInfo("Collated file", collated)
	} else {
		ui.PrintInfo("Collated file", "not built yet")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), ui.StatusTable(rows))
	return nil
}
