package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/report-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T, policy model.AccumulatePolicy) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "reports.db")
	st, err := NewSQLite(dbPath, policy)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_LoadEmpty(t *testing.T) {
	st := newTestSQLiteStore(t, model.AccumulateAppend)

	table, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestSQLite_AppendAndSave_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t, model.AccumulateAppend)
	ctx := context.Background()

	table, err := st.Load(ctx)
	require.NoError(t, err)

	records := []model.ReportRecord{
		{Company: "Acme", URL: "https://acme.com/a.pdf"},
		{Company: "Beta-Gamma", URL: "https://bg.com/b.pdf"},
	}
	require.NoError(t, st.AppendAndSave(ctx, table, records))

	loaded, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	assert.Equal(t, model.ReportRecord{Index: 0, Company: "Acme", URL: "https://acme.com/a.pdf"}, loaded.Records[0])
	assert.Equal(t, model.ReportRecord{Index: 1, Company: "Beta-Gamma", URL: "https://bg.com/b.pdf"}, loaded.Records[1])
}

func TestSQLite_AppendAccumulatesDuplicates(t *testing.T) {
	st := newTestSQLiteStore(t, model.AccumulateAppend)
	ctx := context.Background()
	rec := []model.ReportRecord{{Company: "Acme", URL: "https://acme.com/a.pdf"}}

	for range 2 {
		table, err := st.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, st.AppendAndSave(ctx, table, rec))
	}

	loaded, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, 1, loaded.Records[1].Index)
}

func TestSQLite_DedupPolicy(t *testing.T) {
	st := newTestSQLiteStore(t, model.AccumulateDedup)
	ctx := context.Background()
	rec := []model.ReportRecord{{Company: "Acme", URL: "https://acme.com/a.pdf"}}

	for range 2 {
		table, err := st.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, st.AppendAndSave(ctx, table, rec))
	}

	loaded, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestSQLite_AppendAndSave_NilTable(t *testing.T) {
	st := newTestSQLiteStore(t, model.AccumulateAppend)
	ctx := context.Background()

	require.NoError(t, st.AppendAndSave(ctx, nil, []model.ReportRecord{{Company: "Acme", URL: "u"}}))

	loaded, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t, model.AccumulateAppend)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_LoadAfterClose(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "closed.db"), model.AccumulateAppend)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = st.Load(context.Background())
	assert.Error(t, err)
}
