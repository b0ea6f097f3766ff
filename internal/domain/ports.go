package domain

import "context"

// ReservationStore runs units of work. fn's error rolls the transaction back;
// a nil return commits.
type ReservationStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error
}

type ReservationTx interface {
	// Read paths (ErrNotFound when absent)
	FindByID(ctx context.Context, id string) (Reservation, error)
	FindByIDAndStatus(ctx context.Context, id string, status Status) (Reservation, error)

	// FindOverlapCandidates returns reservations with the given status whose closed
	// span [checkin, checkout] intersects [start, end], ordered by checkin. With
	// lockForWrite the rows stay exclusively locked until the transaction ends, and
	// concurrent lockers wait.
	FindOverlapCandidates(ctx context.Context, start, end Date, status Status, lockForWrite bool) ([]Reservation, error)

	// Write path: insert or update by ID
	Save(ctx context.Context, r Reservation) (Reservation, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}
