package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/report-cli/internal/match"
	"github.com/sells-group/report-cli/internal/reference"
	"github.com/sells-group/report-cli/internal/stats"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Fuzzy-join two company tables",
	Long: `For every row of --left, find up to --limit values of --right-column in
--right whose approximate score reaches --threshold, and write the left rows
with an added "matches" column (accepted values joined by ", ").

Prints the percentile thresholds of the best score per left row, which
helps pick a threshold.

Example:
  match --left reports.csv --right universe.xlsx --right-column legal_name --output matched.csv`,
	RunE: runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.String("left", "", "left table (.csv, .xlsx or .txt)")
	f.String("right", "", "right table (.csv, .xlsx or .txt)")
	f.String("left-column", reference.DefaultColumn, "join column in the left table")
	f.String("right-column", reference.DefaultColumn, "join column in the right table")
	f.Int("threshold", -1, "minimum score 0-100 (default from config)")
	f.Int("limit", -1, "candidates per row, 0 = all (default from config)")
	f.String("output", "", "output CSV (default: stdout)")
	_ = matchCmd.MarkFlagRequired("left")
	_ = matchCmd.MarkFlagRequired("right")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate("match"); err != nil {
		return err
	}
	ctx := cmd.Context()

	leftPath, _ := cmd.Flags().GetString("left")
	rightPath, _ := cmd.Flags().GetString("right")
	leftCol, _ := cmd.Flags().GetString("left-column")
	rightCol, _ := cmd.Flags().GetString("right-column")
	threshold, _ := cmd.Flags().GetInt("threshold")
	limit, _ := cmd.Flags().GetInt("limit")
	outPath, _ := cmd.Flags().GetString("output")
	if threshold < 0 {
		threshold = cfg.Match.Threshold
	}
	if limit < 0 {
		limit = cfg.Match.Limit
	}

	left, err := reference.LoadTable(ctx, leftPath)
	if err != nil {
		return err
	}
	right, err := reference.LoadTable(ctx, rightPath)
	if err != nil {
		return err
	}

	joined, results, err := joinTables(left, leftCol, right, rightCol, threshold, limit)
	if err != nil {
		return err
	}

	matched := 0
	for _, r := range results {
		if r.Matches != "" {
			matched++
		}
	}
	zap.L().Info("match: joined",
		zap.Int("left_rows", len(left.Rows)),
		zap.Int("right_rows", len(right.Rows)),
		zap.Int("matched", matched),
		zap.Int("threshold", threshold),
		zap.Int("limit", limit),
	)

	if outPath != "" {
		if err := reference.WriteCSV(joined, outPath); err != nil {
			return err
		}
	} else if err := reference.Write(cmd.OutOrStdout(), joined); err != nil {
		return err
	}

	return printScorePercentiles(cmd.ErrOrStderr(), results)
}

// joinTables merges right values into left rows and returns the left table
// with a trailing "matches" column.
func joinTables(left *reference.Table, leftCol string, right *reference.Table, rightCol string, threshold, limit int) (*reference.Table, []match.MergeResult, error) {
	lvals, err := left.Values(leftCol)
	if err != nil {
		return nil, nil, eris.Wrap(err, "match: left table")
	}
	rvals, err := right.Values(rightCol)
	if err != nil {
		return nil, nil, eris.Wrap(err, "match: right table")
	}

	results := match.Merge(lvals, rvals, threshold, limit)

	out := &reference.Table{
		Header: append(append([]string(nil), left.Header...), "matches"),
		Rows:   make([][]string, len(left.Rows)),
	}
	width := len(left.Header)
	for i, row := range left.Rows {
		r := make([]string, width+1)
		copy(r, row)
		r[width] = results[i].Matches
		out.Rows[i] = r
	}
	return out, results, nil
}

func printScorePercentiles(w io.Writer, results []match.MergeResult) error {
	if len(results) == 0 {
		return nil
	}
	best := make([]int, len(results))
	for i, r := range results {
		best[i] = r.BestScore()
	}
	pt, err := stats.Percentiles(stats.Ints(best), stats.DefaultPercentiles)
	if err != nil {
		return err
	}
	ps := make([]int, 0, len(pt))
	for p := range pt {
		ps = append(ps, p)
	}
	sort.Ints(ps)

	fmt.Fprintln(w, "best score percentiles:")
	for _, p := range ps {
		fmt.Fprintf(w, "  p%-3d %6.2f\n", p, pt[p])
	}
	return nil
}
