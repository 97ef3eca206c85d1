// Package sqlstore implements storage.Store over database/sql. No
// example repo in the reference corpus pins a concrete SQL driver, so
// this package stays on the standard library's driver-agnostic
// interface and leaves the `*sql.DB` (and its driver import) to the
// caller, the way the teacher's own config loading stays on stdlib
// where nothing in the corpus offers a grounded alternative.
package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/othernet-project/monitoring/pkg/storage"
)

// Store persists stats rows through a *sql.DB. The schema matches
// spec.md §6's column list; callers are responsible for migrating it.
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

// New wraps db. logger defaults to logrus.StandardLogger() if nil.
func New(db *sql.DB, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{db: db, logger: logger}
}

const insertSQL = `
INSERT INTO stats (
	ip, location, client_id, signal_lock, service_lock, signal_strength,
	bitrate, snr, service_ok, tuner_vendor, tuner_model, tuner_preset,
	carousels_count, carousels_status, timestamp, reported
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

func (s *Store) InsertRow(ctx context.Context, row storage.Row) error {
	_, err := s.db.ExecContext(ctx, insertSQL,
		row.IP, nullableLocation(row.Location), row.ClientID.String(), row.SignalLock,
		row.ServiceLock, row.SignalStrength, row.Bitrate, row.SNR, row.ServiceOK,
		row.TunerVendor, row.TunerModel, row.TunerPreset, row.CarouselsCount,
		encodeBoolArray(row.CarouselsStatus), row.Timestamp, row.Reported,
	)
	return err
}

const selectSQL = `
SELECT ip, location, client_id, signal_lock, service_lock, signal_strength,
	bitrate, snr, service_ok, tuner_vendor, tuner_model, tuner_preset,
	carousels_count, carousels_status, timestamp, reported
FROM stats
WHERE reported >= $1 AND signal_lock = true
ORDER BY tuner_preset, client_id, timestamp`

func (s *Store) SelectWindow(ctx context.Context, since time.Time) ([]storage.Row, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.Row
	for rows.Next() {
		var (
			row          storage.Row
			location     sql.NullString
			clientID     string
			carouselsStr string
		)
		if err := rows.Scan(
			&row.IP, &location, &clientID, &row.SignalLock, &row.ServiceLock,
			&row.SignalStrength, &row.Bitrate, &row.SNR, &row.ServiceOK,
			&row.TunerVendor, &row.TunerModel, &row.TunerPreset,
			&row.CarouselsCount, &carouselsStr, &row.Timestamp, &row.Reported,
		); err != nil {
			return nil, err
		}
		row.Location = location.String
		id, err := uuid.Parse(clientID)
		if err != nil {
			s.logger.WithError(err).WithField("raw", clientID).Warn("skipping row with malformed client_id")
			continue
		}
		row.ClientID = id
		row.CarouselsStatus = decodeBoolArray(carouselsStr)
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullableLocation(code string) any {
	if code == "" {
		return nil
	}
	return code
}

// encodeBoolArray/decodeBoolArray encode carousels_status as a
// Postgres-style boolean array literal ("{true,false,true}"), the array
// representation named in spec.md §6. decodeBoolArray also accepts
// the short "{t,f,t}" form.
func encodeBoolArray(bs []bool) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = strconv.FormatBool(b)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func decodeBoolArray(s string) []bool {
	s = strings.Trim(s, "{}")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]bool, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p) == "t" || strings.TrimSpace(p) == "true"
	}
	return out
}
