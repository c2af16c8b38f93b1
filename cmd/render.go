package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/report-cli/internal/browser"
)

var renderCmd = &cobra.Command{
	Use:   "render <url>",
	Short: "Render a JavaScript page in headless Chrome",
	Long: `Load a page in a fresh headless Chrome, wait for the body and print the
rendered HTML, its markdown or the PDF links it contains. Requires Chrome or
Chromium on the host.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.String("format", "html", "output: html, markdown or links")
	f.String("output", "", "output file (default: stdout)")
	f.Int("timeout", 0, "render timeout in seconds (overrides config)")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("render"); err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "html" && format != "markdown" && format != "links" {
		return eris.Errorf("render: --format must be html, markdown or links (got %q)", format)
	}

	timeout := cfg.Browser.TimeoutSecs
	if t, _ := cmd.Flags().GetInt("timeout"); t > 0 {
		timeout = t
	}
	loader := browser.NewChromeLoader(
		browser.WithTimeout(time.Duration(timeout)*time.Second),
		browser.WithNoSandbox(cfg.Browser.NoSandbox),
	)

	html, err := loader.Render(ctx, args[0])
	if err != nil {
		return err
	}
	text, err := renderOutput(html, args[0], format)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	w, err := openOutput(outPath)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		w.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "render: write output")
	}
	return w.Close()
}

func renderOutput(html, pageURL, format string) (string, error) {
	switch format {
	case "markdown":
		return browser.Markdown(html)
	case "links":
		links, err := browser.PDFLinks(html, pageURL)
		if err != nil {
			return "", err
		}
		return strings.Join(links, "\n"), nil
	default:
		return html, nil
	}
}
