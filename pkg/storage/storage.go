// Package storage defines the append-only persistence boundary for
// the `stats` table (spec.md §6) and the query the classifier pass
// needs. There are no update/delete operations: from the server's
// perspective stats rows are immutable once inserted (spec.md §5).
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Row is one persisted stats row, spec.md §6's column list.
type Row struct {
	IP              string
	Location        string // ISO-3166-1 alpha-2, lower case, or "" if unknown
	ClientID        uuid.UUID
	SignalLock      bool
	ServiceLock     bool
	SignalStrength  int
	Bitrate         int64
	SNR             float64
	ServiceOK       bool
	TunerVendor     string
	TunerModel      string
	TunerPreset     int
	CarouselsCount  int
	CarouselsStatus []bool
	Timestamp       float64
	Reported        time.Time
}

// Store is the persistence boundary. An implementation over a real
// database lives outside this package's required surface; see
// storage/sqlstore for a database/sql-backed one.
type Store interface {
	// InsertRow persists one row. Implementations MUST NOT update or
	// delete existing rows.
	InsertRow(ctx context.Context, row Row) error

	// SelectWindow returns every row with Reported >= since and
	// SignalLock == true, ordered by (TunerPreset, ClientID,
	// Timestamp) — the classifier's working-set query (spec.md §4.4).
	SelectWindow(ctx context.Context, since time.Time) ([]Row, error)
}
