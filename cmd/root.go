package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "report-cli",
	Short: "Sustainability report discovery and reconciliation",
	Long: `Searches the web for company sustainability reports, downloads the PDFs,
records every link in a result table and reconciles company names against
reference lists.

Configuration comes from config.yaml in the working directory, a .env file
and REPORTS_* environment variables (e.g. REPORTS_SEARCH_API_KEY).`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides log.level)")
	rootCmd.PersistentFlags().String("store", "", "result store driver: csv, sqlite or postgres (overrides store.driver)")
}

func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyGlobalFlags(cmd, c)
	if err := c.ValidateStructure(); err != nil {
		return err
	}
	cfg = c

	if err := config.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

func applyGlobalFlags(cmd *cobra.Command, c *config.Config) {
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		c.Log.Level = lvl
	}
	if drv, _ := cmd.Flags().GetString("store"); drv != "" {
		c.Store.Driver = drv
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
