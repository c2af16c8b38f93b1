package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/report-cli/internal/match"
	"github.com/sells-group/report-cli/internal/normalize"
	"github.com/sells-group/report-cli/internal/reference"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [name...]",
	Short: "Print normalized company names",
	Long: `Lowercase, transliterate, strip punctuation, legal suffixes and generic
corporate words. Prints "raw<TAB>normalized" per name.`,
	RunE: runNormalize,
}

var similarityCmd = &cobra.Command{
	Use:   "similarity <a> <b>",
	Short: "Score two company names",
	Long: `Print the trigram TF-IDF cosine similarity of the normalized names (0-1)
and the approximate match score used by the match command (0-100).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b := args[0], args[1]
		fmt.Fprintf(cmd.OutOrStdout(), "%q -> %q\n%q -> %q\ncosine: %.4f\nscore: %d\n",
			a, normalize.Name(a), b, normalize.Name(b), match.Similarity(a, b), match.Score(a, b))
		return nil
	},
}

func init() {
	f := normalizeCmd.Flags()
	f.String("input", "", "read names from a .csv, .xlsx or .txt file")
	f.String("column", "", "name column in the input file")

	rootCmd.AddCommand(normalizeCmd, similarityCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	names := append([]string(nil), args...)
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		column, _ := cmd.Flags().GetString("column")
		loaded, err := reference.LoadCompanies(cmd.Context(), path, column)
		if err != nil {
			return eris.Wrap(err, "normalize: load names")
		}
		names = append(names, loaded...)
	}
	if len(names) == 0 {
		return eris.New("normalize: no names given")
	}
	writeNormalized(cmd.OutOrStdout(), names)
	return nil
}

func writeNormalized(w io.Writer, names []string) {
	for _, n := range names {
		fmt.Fprintf(w, "%s\t%s\n", n, normalize.Name(n))
	}
}
