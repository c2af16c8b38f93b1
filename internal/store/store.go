// Package store persists the report result table. The CSV backend is the
// default; SQLite and Postgres keep the same table in a report_urls table.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/report-cli/internal/config"
	"github.com/sells-group/report-cli/internal/model"
)

// Store defines the persistence interface for the result table.
type Store interface {
	// Load returns the persisted table, or an empty table when nothing has
	// been saved yet.
	Load(ctx context.Context) (*model.ResultTable, error)

	// AppendAndSave merges records into table under the store's accumulate
	// policy and rewrites the whole persisted table.
	AppendAndSave(ctx context.Context, table *model.ResultTable, records []model.ReportRecord) error

	// Close releases any underlying connection.
	Close() error
}

// New opens the backend selected by cfg.Driver. SQL backends are migrated
// before being returned.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	policy := model.ParseAccumulatePolicy(cfg.Dedup)

	switch cfg.Driver {
	case "", "csv":
		return NewCSV(cfg.LoadPath, cfg.SavePath, policy), nil
	case "sqlite":
		st, err := NewSQLite(cfg.DatabaseURL, policy)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := NewPostgres(ctx, cfg.DatabaseURL, policy)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

const reportTable = "report_urls"

var reportColumns = []string{"idx", "company", "url"}

func merge(table *model.ResultTable, records []model.ReportRecord, policy model.AccumulatePolicy) *model.ResultTable {
	if table == nil {
		table = model.NewResultTable()
	}
	table.Append(records, policy)
	return table
}
