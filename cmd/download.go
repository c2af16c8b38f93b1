package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/report-cli/internal/download"
	"github.com/sells-group/report-cli/internal/pipeline"
	"github.com/sells-group/report-cli/internal/store"
)

var downloadCmd = &cobra.Command{
	Use:   "download [url...]",
	Short: "Download report PDFs into a folder",
	Long: `Download each URL into --folder, named after the last path segment.
Existing files are skipped without a request. Failures are silent unless
--report is set.

With --from-table every link in the result table is fetched into
{data_dir}/{company}/ instead.`,
	RunE: runDownload,
}

func init() {
	f := downloadCmd.Flags()
	f.String("folder", ".", "target folder for URL arguments")
	f.Bool("from-table", false, "download every link recorded in the result table")
	f.Bool("report", false, "print failed downloads")

	rootCmd.AddCommand(downloadCmd)
}

type downloadJob struct {
	url    string
	folder string
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("download"); err != nil {
		return err
	}

	folder, _ := cmd.Flags().GetString("folder")
	jobs := make([]downloadJob, 0, len(args))
	for _, u := range args {
		jobs = append(jobs, downloadJob{url: u, folder: folder})
	}

	if fromTable, _ := cmd.Flags().GetBool("from-table"); fromTable {
		tableJobs, err := tableDownloadJobs(ctx, cfg.Download.DataDir)
		if err != nil {
			return err
		}
		jobs = append(jobs, tableJobs...)
	}
	if len(jobs) == 0 {
		return eris.New("download: no URLs given")
	}

	var collect *download.CollectFailures
	var policy download.FailurePolicy
	if report, _ := cmd.Flags().GetBool("report"); report {
		collect = &download.CollectFailures{}
		policy = collect
	}

	m := newStandaloneDownloads(cfg.Download, policy)
	counts, err := runDownloadJobs(ctx, m, jobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d downloaded, %d already on disk, %d failed\n",
		counts[download.OutcomeDownloaded], counts[download.OutcomeExists], counts[download.OutcomeFailed])
	if collect != nil {
		printFailures(out, collect.Failures())
	}
	return nil
}

func runDownloadJobs(ctx context.Context, m *download.Manager, jobs []downloadJob) (map[download.Outcome]int, error) {
	counts := make(map[download.Outcome]int)
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return counts, eris.Wrap(err, "download: cancelled")
		}
		outcome, err := m.Fetch(ctx, j.url, j.folder)
		if err != nil {
			return counts, err
		}
		counts[outcome]++
	}
	return counts, nil
}

func tableDownloadJobs(ctx context.Context, dataDir string) ([]downloadJob, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "download: open store")
	}
	defer st.Close() //nolint:errcheck

	table, err := st.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "download: load result table")
	}
	jobs := make([]downloadJob, 0, table.Len())
	for _, r := range table.Records {
		jobs = append(jobs, downloadJob{
			url:    r.URL,
			folder: filepath.Join(dataDir, pipeline.SanitizeCompany(r.Company)),
		})
	}
	return jobs, nil
}

func printFailures(w io.Writer, failures []download.Failure) {
	for _, f := range failures {
		fmt.Fprintf(w, "FAILED [%s] %s: %v\n", f.Class, f.URL, f.Err)
	}
}
