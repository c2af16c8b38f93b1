// Package reference loads company lists and tabular reference data from
// CSV, XLSX or plain-text files.
package reference

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-cli/internal/fetcher"
)

// DefaultColumn is the company-name column looked up when none is given.
const DefaultColumn = "company"

// Table is a header plus string rows. Rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named column, matched case-insensitively
// after trimming.
func (t *Table) Column(name string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i, nil
		}
	}
	return -1, eris.Errorf("reference: column %q not found in %v", name, t.Header)
}

// Cell returns row[col], or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Values returns the named column for every row.
func (t *Table) Values(name string) ([]string, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out, nil
}

// LoadTable reads a table, choosing the parser from the file extension.
// The first row is the header. A .txt file becomes a single "company"
// column with one row per non-blank line.
func LoadTable(ctx context.Context, path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(ctx, path)
	case ".xlsx":
		return loadXLSX(path)
	case ".txt":
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		t := &Table{Header: []string{DefaultColumn}}
		for _, l := range lines {
			t.Rows = append(t.Rows, []string{l})
		}
		return t, nil
	default:
		return nil, eris.Errorf("reference: unsupported file type %q", filepath.Ext(path))
	}
}

// LoadCompanies reads a list of company names. For tables the named column
// is used, falling back to DefaultColumn and then to the first column. Blank
// names are dropped; order and duplicates are kept.
func LoadCompanies(ctx context.Context, path, column string) ([]string, error) {
	t, err := LoadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(t.Header) == 0 {
		return nil, nil
	}

	col := 0
	switch {
	case column != "":
		if col, err = t.Column(column); err != nil {
			return nil, err
		}
	default:
		if c, err := t.Column(DefaultColumn); err == nil {
			col = c
		}
	}

	var names []string
	for i := range t.Rows {
		if name := strings.TrimSpace(t.Cell(i, col)); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func loadCSV(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{HasHeader: true, TrimSpace: true})
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read %s", path)
	}
	return &Table{Header: header, Rows: rows}, nil
}

func loadXLSX(path string) (*Table, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "reference: read %s", path)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}
	return &Table{Header: rows[0], Rows: rows[1:]}, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reference: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "reference: read %s", path)
	}
	return lines, nil
}
