package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoconvert/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geoconvert",
	Short: "Convert shapefiles to GeoJSON",
	Long:  "Reads ESRI shapefiles (local, zipped or downloaded), optionally filters features by attribute or bounding box, and writes GeoJSON FeatureCollections.",
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
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
