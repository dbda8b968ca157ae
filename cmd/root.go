package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sam-prospector",
	Short: "Multi-dialect LinkedIn prospect search pipeline",
	Long:  "Searches LinkedIn through Unipile across the classic, sales navigator and recruiter dialects, normalizes and deduplicates results, and persists reviewable prospect batches.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
