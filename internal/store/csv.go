package store

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-cli/internal/fetcher"
	"github.com/sells-group/report-cli/internal/model"
)

// csvHeader matches a pandas frame written with its index: an unnamed
// first column followed by company and url.
var csvHeader = []string{"", "company", "url"}

// CSVStore implements Store over a CSV file. Loading and saving may use
// different paths.
type CSVStore struct {
	loadPath string
	savePath string
	policy   model.AccumulatePolicy
}

// NewCSV creates a CSV-backed store. An empty loadPath falls back to savePath.
func NewCSV(loadPath, savePath string, policy model.AccumulatePolicy) *CSVStore {
	if loadPath == "" {
		loadPath = savePath
	}
	return &CSVStore{loadPath: loadPath, savePath: savePath, policy: policy}
}

// Load reads the table at the store's load path.
func (s *CSVStore) Load(ctx context.Context) (*model.ResultTable, error) {
	return LoadCSV(ctx, s.loadPath)
}

// AppendAndSave merges records and rewrites the save path.
func (s *CSVStore) AppendAndSave(_ context.Context, table *model.ResultTable, records []model.ReportRecord) error {
	return SaveCSV(merge(table, records, s.policy), s.savePath)
}

// Close is a no-op.
func (s *CSVStore) Close() error { return nil }

// LoadCSV reads a result table. A missing file yields an empty table;
// anything unparseable is an error.
func LoadCSV(ctx context.Context, path string) (*model.ResultTable, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewResultTable(), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{HasHeader: true})
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", path)
	}

	table := model.NewResultTable()
	if header == nil {
		return table, nil
	}

	idx, company, url, err := columnPositions(header)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", path)
	}

	for i, row := range rows {
		rec := model.ReportRecord{Index: i}
		if company >= len(row) || url >= len(row) {
			return nil, eris.Errorf("store: read %s: row %d has %d fields", path, i+1, len(row))
		}
		rec.Company = row[company]
		rec.URL = row[url]
		if idx >= 0 && idx < len(row) && row[idx] != "" {
			n, err := strconv.Atoi(row[idx])
			if err != nil {
				return nil, eris.Wrapf(err, "store: read %s: row %d index", path, i+1)
			}
			rec.Index = n
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// columnPositions locates the index, company and url columns. The index
// column is the unnamed one, if any.
func columnPositions(header []string) (idx, company, url int, err error) {
	idx, company, url = -1, -1, -1
	for i, h := range header {
		switch h {
		case "":
			if idx < 0 {
				idx = i
			}
		case "company":
			company = i
		case "url":
			url = i
		}
	}
	if company < 0 || url < 0 {
		return 0, 0, 0, eris.Errorf("missing company/url columns in header %q", header)
	}
	return idx, company, url, nil
}

// SaveCSV rewrites path with the full table and a fresh positional index.
// Parent directories are created as needed. Rows go to a temp file in the
// same directory which is renamed over path, so a failed save leaves the
// previous file intact.
func SaveCSV(table *model.ResultTable, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: create dir for %s", path)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "store: create temp for %s", path)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp) //nolint:errcheck
		}
	}()

	w := csv.NewWriter(f)
	_ = w.Write(csvHeader)
	if table != nil {
		for i, r := range table.Records {
			_ = w.Write([]string{strconv.Itoa(i), r.Company, r.URL})
		}
	}
	w.Flush()

	if err := w.Error(); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "store: write %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "store: close %s", path)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return eris.Wrapf(err, "store: chmod %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "store: replace %s", path)
	}
	return nil
}
