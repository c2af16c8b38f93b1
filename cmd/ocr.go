package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Convert downloaded report PDFs to markdown",
	Long: `Extract every PDF in --in to {--out}/{name}.md with the configured
provider: "local" runs pdftotext, "mistral" uses the Mistral OCR API and
keeps page images inline. Existing outputs are skipped unless --reprocess.`,
	RunE: runOCR,
}

func init() {
	f := ocrCmd.Flags()
	f.String("in", "", "folder with PDFs")
	f.String("out", "", "markdown output folder (default: same as --in)")
	f.Bool("reprocess", false, "overwrite existing outputs")
	f.String("provider", "", "local or mistral (overrides config)")
	f.Int("concurrency", 0, "files processed in parallel (overrides config)")
	_ = ocrCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.OCR.Provider = p
	}
	if c, _ := cmd.Flags().GetInt("concurrency"); c > 0 {
		cfg.OCR.Concurrency = c
	}
	if err := cfg.Validate("ocr"); err != nil {
		return err
	}

	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	reprocess, _ := cmd.Flags().GetBool("reprocess")
	if out == "" {
		out = in
	}

	ext, err := ocr.NewExtractor(cfg.OCR)
	if err != nil {
		return err
	}

	zap.L().Info("ocr: converting",
		zap.String("in", in),
		zap.String("out", out),
		zap.String("provider", cfg.OCR.Provider),
		zap.Int("concurrency", cfg.OCR.Concurrency),
	)
	res, err := ocr.ConvertDir(ctx, ext, in, out, reprocess, cfg.OCR.Concurrency)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d converted, %d skipped, %d failed\n", res.Converted, res.Skipped, res.Failed)
	return nil
}
