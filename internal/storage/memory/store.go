// Package memory is an in-process ReservationStore. Transactions are fully
// serialized: WithinTx holds the store lock from the first read to commit, which
// gives the same read-decide-write guarantee as the MySQL FOR UPDATE probe.
package memory

import (
	"context"
	"sort"
	"sync"

	"volcano_camping/internal/domain"
)

type Store struct {
	mu   sync.Mutex
	rows map[string]domain.Reservation
}

func New() *Store { return &Store{rows: map[string]domain.Reservation{}} }

// WithinTx must not be called re-entrantly from fn.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.ReservationTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &tx{rows: make(map[string]domain.Reservation, len(s.rows))}
	for k, v := range s.rows {
		t.rows[k] = v
	}
	if err := fn(ctx, t); err != nil {
		return err // rollback: drop the working copy
	}
	s.rows = t.rows
	return nil
}

// Len is the number of stored reservations, any status.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type tx struct{ rows map[string]domain.Reservation }

func (t *tx) FindByID(_ context.Context, id string) (domain.Reservation, error) {
	r, ok := t.rows[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r, nil
}

func (t *tx) FindByIDAndStatus(_ context.Context, id string, status domain.Status) (domain.Reservation, error) {
	r, ok := t.rows[id]
	if !ok || r.Status != status {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r, nil
}

// lockForWrite is implied: the whole transaction already holds the store lock.
func (t *tx) FindOverlapCandidates(_ context.Context, start, end domain.Date, status domain.Status, _ bool) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range t.rows {
		if r.Status != status {
			continue
		}
		// closed intervals [checkin, checkout] and [start, end] intersect
		if !r.Checkin.After(end) && !r.Checkout.Before(start) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Checkin.Equal(out[j].Checkin) {
			return out[i].ID < out[j].ID
		}
		return out[i].Checkin.Before(out[j].Checkin)
	})
	return out, nil
}

func (t *tx) Save(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
	t.rows[r.ID] = r
	return r, nil
}
