package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/presence-scanner/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	business   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateScan(ctx context.Context, id string, business model.BusinessInput) (*model.Scan, error) {
	now := time.Now().UTC()

	businessJSON, err := json.Marshal(business)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal business")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, business, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(businessJSON), string(model.ScanStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scan")
	}

	return &model.Scan{
		ID:        id,
		Business:  business,
		Status:    model.ScanStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateScanStatus(ctx context.Context, id string, status model.ScanStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveResult(ctx context.Context, id string, result *model.ScanResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.ScanStatusCompleted), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: save result")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetScan(ctx context.Context, id string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, business, status, result, created_at, updated_at FROM scans WHERE id = ?`, id)

	scan, err := scanRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get scan")
	}
	return scan, nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `SELECT id, business, status, result, created_at, updated_at FROM scans`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close() //nolint:errcheck

	var scans []model.Scan
	for rows.Next() {
		scan, err := scanRow(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		scans = append(scans, *scan)
	}
	return scans, eris.Wrap(rows.Err(), "sqlite: iterate rows")
}

// scanRow decodes one scans row via the given Scan function.
func scanRow(scanFn func(dest ...any) error) (*model.Scan, error) {
	var (
		scan         model.Scan
		businessJSON string
		resultJSON   sql.NullString
		status       string
	)
	if err := scanFn(&scan.ID, &businessJSON, &status, &resultJSON, &scan.CreatedAt, &scan.UpdatedAt); err != nil {
		return nil, err
	}
	scan.Status = model.ScanStatus(status)

	if err := json.Unmarshal([]byte(businessJSON), &scan.Business); err != nil {
		return nil, eris.Wrap(err, "decode business")
	}
	if resultJSON.Valid && resultJSON.String != "" {
		scan.Result = &model.ScanResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), scan.Result); err != nil {
			return nil, eris.Wrap(err, "decode result")
		}
	}
	return &scan, nil
}
