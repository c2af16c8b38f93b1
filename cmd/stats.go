package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/report-cli/internal/stats"
	"github.com/sells-group/report-cli/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the result table",
	Long: `Count report links per host domain and per plausible year found in the
URL, and print percentile thresholds of the number of links per company.`,
	RunE: runStats,
}

func init() {
	f := statsCmd.Flags()
	f.String("format", "yaml", "output format: json or yaml")
	f.Int("year", 0, "latest plausible report year (default: current year)")
	f.IntSlice("percentiles", stats.DefaultPercentiles, "percentiles to report")
	f.String("output", "", "output file (default: stdout)")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := cfg.Validate("stats"); err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	year, _ := cmd.Flags().GetInt("year")
	ps, _ := cmd.Flags().GetIntSlice("percentiles")
	outPath, _ := cmd.Flags().GetString("output")
	if year <= 0 {
		year = time.Now().Year()
	}

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return eris.Wrap(err, "stats: open store")
	}
	defer st.Close() //nolint:errcheck

	table, err := st.Load(ctx)
	if err != nil {
		return eris.Wrap(err, "stats: load result table")
	}

	summary, err := stats.Summarize(table, year, ps)
	if err != nil {
		return eris.Wrap(err, "stats: summarize")
	}

	if outPath == "" {
		return encode(cmd.OutOrStdout(), format, summary)
	}
	w, err := openOutput(outPath)
	if err != nil {
		return err
	}
	if err := encode(w, format, summary); err != nil {
		w.Close() //nolint:errcheck,gosec
		return err
	}
	return w.Close()
}
