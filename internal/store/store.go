// Package store persists scan records: lifecycle status transitions and the
// final result of each scan, queryable by ID and listable by status.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-scanner/internal/model"
)

// ErrNotFound is returned when a scan ID is unknown.
var ErrNotFound = eris.New("store: scan not found")

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	Status model.ScanStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for scan records.
type Store interface {
	CreateScan(ctx context.Context, id string, business model.BusinessInput) (*model.Scan, error)
	UpdateScanStatus(ctx context.Context, id string, status model.ScanStatus) error
	SaveResult(ctx context.Context, id string, result *model.ScanResult) error
	GetScan(ctx context.Context, id string) (*model.Scan, error)
	ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error)

	Migrate(ctx context.Context) error
	Close() error
}
