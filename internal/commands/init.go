package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/genfin-dev/genfin/internal/accounts"
	"github.com/genfin-dev/genfin/internal/config"
	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/store/sqlite"
)

func newInitCommand() *cobra.Command {
	var name string
	var entityType string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new set of books",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, name, entityType)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "farm_sole_proprietor", "entity type")

	return cmd
}

func runInit(dir, name, entityType string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfgPath := filepath.Join(dir, "genfin.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	// Write genfin.yaml.
	cfg := config.Default(name, entityType)
	cfg.Storage.Path = filepath.Join(dir, cfg.Storage.Path)
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write the chart of accounts CSV alongside the config so it can be
	// edited before any transactions exist.
	chart := accounts.DefaultChart(entityType)
	chartFile, err := os.Create(filepath.Join(dir, "chart-of-accounts.csv"))
	if err != nil {
		return fmt.Errorf("creating chart of accounts: %w", err)
	}
	if err := accounts.WriteChart(chartFile, chart); err != nil {
		chartFile.Close()
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := chartFile.Close(); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	// Open the database and seed every chart account at zero.
	st, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("creating ledger database: %w", err)
	}
	defer st.Close()

	lg := ledger.New(st, nil, cfg.LedgerPolicy())
	if err := accounts.Bootstrap(context.Background(), lg, chart, cfg.Policy.Scale); err != nil {
		return err
	}

	fmt.Printf("Initialized %s at %s (%d accounts)\n", name, dir, len(chart))
	return nil
}
