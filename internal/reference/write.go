package reference

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Write encodes the table, header first, as CSV.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return eris.Wrap(err, "reference: write header")
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "reference: write rows")
	}
	return nil
}

// WriteCSV writes the table to path, creating parent directories.
func WriteCSV(t *Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "reference: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "reference: create %s", path)
	}
	if err := Write(f, t); err != nil {
		f.Close() //nolint:errcheck,gosec
		return eris.Wrapf(err, "reference: write %s", path)
	}
	return eris.Wrapf(f.Close(), "reference: close %s", path)
}
