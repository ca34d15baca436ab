package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-scanner/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
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
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	business   JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateScan(ctx context.Context, id string, business model.BusinessInput) (*model.Scan, error) {
	now := time.Now().UTC()

	businessJSON, err := json.Marshal(business)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal business")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scans (id, business, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, businessJSON, string(model.ScanStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scan")
	}

	return &model.Scan{
		ID:        id,
		Business:  business,
		Status:    model.ScanStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateScanStatus(ctx context.Context, id string, status model.ScanStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update status")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, id string, result *model.ScanResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.ScanStatusCompleted), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: save result")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetScan(ctx context.Context, id string) (*model.Scan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, business, status, result, created_at, updated_at FROM scans WHERE id = $1`, id)

	scan, err := scanPgRow(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get scan")
	}
	return scan, nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `SELECT id, business, status, result, created_at, updated_at FROM scans`
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var scans []model.Scan
	for rows.Next() {
		scan, err := scanPgRow(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		scans = append(scans, *scan)
	}
	return scans, eris.Wrap(rows.Err(), "postgres: iterate rows")
}

// scanPgRow decodes one scans row via the given Scan function.
func scanPgRow(scanFn func(dest ...any) error) (*model.Scan, error) {
	var (
		scan         model.Scan
		businessJSON []byte
		resultJSON   []byte
		status       string
	)
	if err := scanFn(&scan.ID, &businessJSON, &status, &resultJSON, &scan.CreatedAt, &scan.UpdatedAt); err != nil {
		return nil, err
	}
	scan.Status = model.ScanStatus(status)

	if err := json.Unmarshal(businessJSON, &scan.Business); err != nil {
		return nil, eris.Wrap(err, "decode business")
	}
	if len(resultJSON) > 0 {
		scan.Result = &model.ScanResult{}
		if err := json.Unmarshal(resultJSON, scan.Result); err != nil {
			return nil, eris.Wrap(err, "decode result")
		}
	}
	return &scan, nil
}
