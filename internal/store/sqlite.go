package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/report-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db     *sql.DB
	policy model.AccumulatePolicy
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, policy model.AccumulatePolicy) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, policy: policy}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS report_urls (
	idx     INTEGER NOT NULL,
	company TEXT NOT NULL,
	url     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_report_urls_company ON report_urls(company);
`

// Migrate creates the report_urls table if needed.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns every row ordered by index.
func (s *SQLiteStore) Load(ctx context.Context) (*model.ResultTable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idx, company, url FROM report_urls ORDER BY idx, rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load")
	}
	defer rows.Close() //nolint:errcheck

	table := model.NewResultTable()
	for rows.Next() {
		var r model.ReportRecord
		if err := rows.Scan(&r.Index, &r.Company, &r.URL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		table.Records = append(table.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate rows")
	}
	return table, nil
}

// AppendAndSave merges records and replaces the table contents in one
// transaction.
func (s *SQLiteStore) AppendAndSave(ctx context.Context, table *model.ResultTable, records []model.ReportRecord) error {
	table = merge(table, records, s.policy)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_urls`); err != nil {
		return eris.Wrap(err, "sqlite: clear table")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO report_urls (idx, company, url) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range table.Records {
		if _, err := stmt.ExecContext(ctx, r.Index, r.Company, r.URL); err != nil {
			return eris.Wrapf(err, "sqlite: insert row %d", r.Index)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit")
	}
	return nil
}
