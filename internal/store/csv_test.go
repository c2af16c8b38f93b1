package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/report-cli/internal/model"
)

func TestLoadCSV_MissingFile(t *testing.T) {
	table, err := LoadCSV(context.Background(), filepath.Join(t.TempDir(), "report_urls.csv"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadCSV_PandasLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_urls.csv")
	content := ",company,url\n0,Acme,https://acme.com/a.pdf\n1,Beta-Gamma,https://bg.com/b.pdf\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadCSV(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, model.ReportRecord{Index: 1, Company: "Beta-Gamma", URL: "https://bg.com/b.pdf"}, table.Records[1])
}

func TestLoadCSV_NoIndexColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.csv")
	require.NoError(t, os.WriteFile(path, []byte("url,company\nhttps://acme.com/a.pdf,Acme\n"), 0o644))

	table, err := LoadCSV(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "Acme", table.Records[0].Company)
	assert.Equal(t, 0, table.Records[0].Index)
}

func TestLoadCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_urls.csv")
	require.NoError(t, os.WriteFile(path, []byte(",company,url\n"), 0o644))

	table, err := LoadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_urls.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	table, err := LoadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadCSV_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing columns", "name,link\nAcme,https://acme.com\n"},
		{"short row", ",company,url\n0,Acme\n"},
		{"bad index", ",company,url\nx,Acme,https://acme.com/a.pdf\n"},
		{"broken quotes", ",company,url\n0,\"Acme,https://acme.com/a.pdf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadCSV(context.Background(), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "store: read")
		})
	}
}

func TestSaveCSV_Layout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searchresult", "report_urls.csv")
	table := &model.ResultTable{Records: []model.ReportRecord{
		{Index: 7, Company: "Acme", URL: "https://acme.com/a.pdf"},
		{Index: 9, Company: "Beta, Gamma", URL: "https://bg.com/b.pdf"},
	}}

	require.NoError(t, SaveCSV(table, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",company,url\n0,Acme,https://acme.com/a.pdf\n1,\"Beta, Gamma\",https://bg.com/b.pdf\n", string(data))
}

func TestSaveCSV_EmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_urls.csv")
	require.NoError(t, SaveCSV(model.NewResultTable(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",company,url\n", string(data))
}

func TestSaveCSV_Unwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := SaveCSV(model.NewResultTable(), filepath.Join(blocker, "report_urls.csv"))
	assert.Error(t, err)
}

func TestSaveCSV_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report_urls.csv")
	require.NoError(t, SaveCSV(&model.ResultTable{Records: []model.ReportRecord{{Company: "Old", URL: "https://old.com/a.pdf"}}}, path))
	require.NoError(t, SaveCSV(&model.ResultTable{Records: []model.ReportRecord{{Company: "New", URL: "https://new.com/b.pdf"}}}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",company,url\n0,New,https://new.com/b.pdf\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report_urls.csv", entries[0].Name())
}

func TestSaveCSV_FailedReplaceKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory at the target path cannot be replaced by a file.
	path := filepath.Join(dir, "report_urls.csv")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0o644))

	err := SaveCSV(&model.ResultTable{Records: []model.ReportRecord{{Company: "Acme", URL: "https://acme.com/a.pdf"}}}, path)
	require.Error(t, err)

	data, err := os.ReadFile(filepath.Join(path, "keep"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must be removed after a failed save")
	assert.Equal(t, "report_urls.csv", entries[0].Name())
}

func TestCSVStore_AppendAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report_urls.csv")
	st := NewCSV(path, path, model.AccumulateAppend)
	ctx := context.Background()

	rec := []model.ReportRecord{{Company: "Acme", URL: "https://acme.com/a.pdf"}}
	for range 2 {
		table, err := st.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, st.AppendAndSave(ctx, table, rec))
	}

	loaded, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len(), "append policy accumulates duplicates")
	assert.Equal(t, loaded.Records[0].Company, loaded.Records[1].Company)
	assert.NoError(t, st.Close())
}

func TestCSVStore_SeparateLoadAndSavePaths(t *testing.T) {
	dir := t.TempDir()
	loadPath := filepath.Join(dir, "in.csv")
	savePath := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(loadPath, []byte(",company,url\n0,Acme,https://acme.com/a.pdf\n"), 0o644))

	st := NewCSV(loadPath, savePath, model.AccumulateDedup)
	ctx := context.Background()

	table, err := st.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, st.AppendAndSave(ctx, table, []model.ReportRecord{
		{Company: "Acme", URL: "https://acme.com/a.pdf"},
		{Company: "Beta", URL: "https://beta.com/b.pdf"},
	}))

	out, err := LoadCSV(ctx, savePath)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())

	in, err := LoadCSV(ctx, loadPath)
	require.NoError(t, err)
	assert.Equal(t, 1, in.Len(), "load path is never written")
}

func TestNewCSV_EmptyLoadPath(t *testing.T) {
	st := NewCSV("", "out.csv", model.AccumulateAppend)
	assert.Equal(t, "out.csv", st.loadPath)
}
