package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprintdeck/prioritizer/internal/config"
	"github.com/sprintdeck/prioritizer/internal/engine"
	"github.com/sprintdeck/prioritizer/internal/storage"
)

var (
	cfgPath string
	orgID   string

	cfg   *config.Config
	store storage.Storage
	eng   *engine.Engine
)

var rootCmd = &cobra.Command{
	Use:   "prioritizer",
	Short: "Backlog prioritization and analysis engine",
	Long: `Prioritizer scores backlog stories under WSJF, RICE, MoSCoW, or
Value/Effort, detects delivery conflicts, runs capacity analysis, and
produces a confidence-weighted report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		// init only writes the config file; it needs no org or storage
		if cmd.Name() == "init" {
			return nil
		}

		if orgID == "" {
			orgID = os.Getenv("PRIORITIZER_ORG")
		}
		if orgID == "" {
			return fmt.Errorf("organization id is required (--org or PRIORITIZER_ORG)")
		}

		store, err = storage.NewStorage(cmd.Context(), cfg.StorageConfig())
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		eng, err = engine.New(engine.Config{
			Store:        store,
			TeamCapacity: cfg.TeamCapacityPerQuarter,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".prioritizer/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", "", "Organization id (or PRIORITIZER_ORG)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
