package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/pipeline"
	"github.com/sells-group/report-cli/internal/reference"
	"github.com/sells-group/report-cli/internal/store"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [company...]",
	Short: "Search, download and record sustainability reports",
	Long: `Search the web for each company's sustainability report, download every
PDF hit into {data_dir}/{company}/ and append every PDF link to the result
table.

Companies come from the arguments and/or a reference file (--companies).
Already downloaded files are never fetched again; with the default append
policy re-running adds duplicate rows to the table.

Examples:
  discover "Acme Inc." "Beta/Gamma AG"
  discover --companies companies.xlsx --column legal_name --year 2023`,
	RunE: runDiscover,
}

func init() {
	f := discoverCmd.Flags()
	f.String("companies", "", "company list file (.csv, .xlsx or .txt)")
	f.String("column", "", "company column in the list file (default: company, then first column)")
	f.Int("year", 0, "report year in the query (overrides config, 0 = current year)")
	f.String("data-dir", "", "download root (overrides config)")
	f.String("format", "", "print the run result as json or yaml")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if y, _ := cmd.Flags().GetInt("year"); y > 0 {
		cfg.Search.Year = y
	}
	if d, _ := cmd.Flags().GetString("data-dir"); d != "" {
		cfg.Download.DataDir = d
	}
	if err := cfg.Validate("discover"); err != nil {
		return err
	}

	companies, err := collectCompanies(ctx, cmd, args)
	if err != nil {
		return err
	}

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return eris.Wrap(err, "discover: open store")
	}
	defer st.Close() //nolint:errcheck

	p := pipeline.New(pipeline.ConfigFrom(cfg), newSearchClient(cfg.Search), newPipelineDownloads(cfg.Download), st)
	zap.L().Info("discover: starting",
		zap.Int("companies", len(companies)),
		zap.String("store", cfg.Store.Driver),
		zap.Int("year", p.Config().Year),
	)

	res, err := p.Run(ctx, companies)
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return encode(cmd.OutOrStdout(), format, res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d companies, %d skipped, %d PDF links (%d downloaded, %d on disk, %d failed), %d rows appended, table size %d\n",
		res.RunID, res.Companies, res.Skipped, res.PDFLinks, res.Downloaded, res.Existing, res.Failed, res.Appended, res.TableSize)
	return nil
}

func collectCompanies(ctx context.Context, cmd *cobra.Command, args []string) ([]string, error) {
	companies := append([]string(nil), args...)
	if path, _ := cmd.Flags().GetString("companies"); path != "" {
		column, _ := cmd.Flags().GetString("column")
		names, err := reference.LoadCompanies(ctx, path, column)
		if err != nil {
			return nil, eris.Wrap(err, "discover: load companies")
		}
		companies = append(companies, names...)
	}
	if len(companies) == 0 {
		return nil, eris.New("discover: no companies given (pass names or --companies)")
	}
	return companies, nil
}
