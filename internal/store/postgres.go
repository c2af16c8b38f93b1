package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/report-cli/internal/db"
	"github.com/sells-group/report-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	policy  model.AccumulatePolicy
	closeFn func()
}

// NewPostgres creates a PostgresStore with a small connection pool.
func NewPostgres(ctx context.Context, connString string, policy model.AccumulatePolicy) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	// One run writes the table once; a couple of connections is plenty.
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, policy: policy, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS report_urls (
	idx     INTEGER NOT NULL,
	company TEXT NOT NULL,
	url     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_report_urls_company ON report_urls(company);
`

// Migrate creates the report_urls table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Load returns every row ordered by index.
func (s *PostgresStore) Load(ctx context.Context) (*model.ResultTable, error) {
	rows, err := s.pool.Query(ctx, `SELECT idx, company, url FROM report_urls ORDER BY idx`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load")
	}
	defer rows.Close()

	table := model.NewResultTable()
	for rows.Next() {
		var r model.ReportRecord
		if err := rows.Scan(&r.Index, &r.Company, &r.URL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		table.Records = append(table.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate rows")
	}
	return table, nil
}

// AppendAndSave merges records and replaces the table contents in one
// transaction using COPY.
func (s *PostgresStore) AppendAndSave(ctx context.Context, table *model.ResultTable, records []model.ReportRecord) error {
	table = merge(table, records, s.policy)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM report_urls`); err != nil {
		return eris.Wrap(err, "postgres: clear table")
	}

	rows := make([][]any, 0, table.Len())
	for _, r := range table.Records {
		rows = append(rows, []any{r.Index, r.Company, r.URL})
	}
	if _, err := db.CopyFrom(ctx, tx, reportTable, reportColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: copy rows")
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	return nil
}
