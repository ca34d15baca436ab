package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/presence-scanner/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresCreateScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scans`).
		WithArgs("scan-1", pgxmock.AnyArg(), "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	scan, err := s.CreateScan(context.Background(), "scan-1", model.BusinessInput{Name: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "scan-1", scan.ID)
	assert.Equal(t, model.ScanStatusQueued, scan.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScanNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, business, status, result, created_at, updated_at FROM scans WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetScan(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	business, err := json.Marshal(model.BusinessInput{Name: "Acme Corp"})
	require.NoError(t, err)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "business", "status", "result", "created_at", "updated_at"}).
		AddRow("scan-1", business, "queued", []byte(nil), now, now)
	mock.ExpectQuery(`SELECT id, business, status, result, created_at, updated_at FROM scans WHERE id = \$1`).
		WithArgs("scan-1").
		WillReturnRows(rows)

	scan, err := s.GetScan(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", scan.Business.Name)
	assert.Nil(t, scan.Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateScanStatusNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE scans SET status`).
		WithArgs("failed", pgxmock.AnyArg(), "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateScanStatus(context.Background(), "nope", model.ScanStatusFailed)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE scans SET result`).
		WithArgs(pgxmock.AnyArg(), "completed", pgxmock.AnyArg(), "scan-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.SaveResult(context.Background(), "scan-1", &model.ScanResult{ScanID: "scan-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListScansWithFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	business, err := json.Marshal(model.BusinessInput{Name: "Acme Corp"})
	require.NoError(t, err)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "business", "status", "result", "created_at", "updated_at"}).
		AddRow("scan-1", business, "completed", []byte(nil), now, now)
	mock.ExpectQuery(`SELECT id, business, status, result, created_at, updated_at FROM scans WHERE status = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("completed", 10).
		WillReturnRows(rows)

	scans, err := s.ListScans(context.Background(), ScanFilter{
		Status: model.ScanStatusCompleted,
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "scan-1", scans[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS scans`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
