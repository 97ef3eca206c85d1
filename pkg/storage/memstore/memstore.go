// Package memstore implements storage.Store in memory, for tests and
// for monitord when it runs without a database driver.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/othernet-project/monitoring/pkg/storage"
)

// Store is a concurrency-safe in-memory storage.Store.
type Store struct {
	mu   sync.Mutex
	rows []storage.Row
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) InsertRow(_ context.Context, row storage.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

func (s *Store) SelectWindow(_ context.Context, since time.Time) ([]storage.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []storage.Row
	for _, r := range s.rows {
		if !r.Reported.Before(since) && r.SignalLock {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TunerPreset != out[j].TunerPreset {
			return out[i].TunerPreset < out[j].TunerPreset
		}
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID.String() < out[j].ClientID.String()
		}
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}

// Len reports the number of rows inserted so far, for tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
