package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"volcano_camping/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.ReservationTx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, &tx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type tx struct{ tx *sql.Tx }

func (t *tx) FindByID(ctx context.Context, id string) (domain.Reservation, error) {
	return scanOne(t.tx.QueryRowContext(ctx, findByIDSQL, id))
}

func (t *tx) FindByIDAndStatus(ctx context.Context, id string, status domain.Status) (domain.Reservation, error) {
	return scanOne(t.tx.QueryRowContext(ctx, findByIDAndStatusSQL, id, string(status)))
}

func (t *tx) FindOverlapCandidates(ctx context.Context, start, end domain.Date, status domain.Status, lockForWrite bool) ([]domain.Reservation, error) {
	q := findOverlapCandidatesSQL
	if lockForWrite {
		var guard int
		if err := t.tx.QueryRowContext(ctx, lockGuardSQL).Scan(&guard); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, errors.New("campsite_guard row missing; apply migrations")
			}
			return nil, fmt.Errorf("lock campsite guard: %w", err)
		}
		q += forUpdate
	}

	rows, err := t.tx.QueryContext(ctx, q, string(status), end, start)
	if err != nil {
		return nil, fmt.Errorf("query overlap candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rv, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *tx) Save(ctx context.Context, rv domain.Reservation) (domain.Reservation, error) {
	_, err := t.tx.ExecContext(ctx, upsertReservationSQL,
		rv.ID,
		rv.Email,
		rv.FullName,
		string(rv.Status),
		rv.Checkin,
		rv.Checkout,
	)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("save reservation %s: %w", rv.ID, err)
	}
	return rv, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanOne(row *sql.Row) (domain.Reservation, error) {
	rv, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return rv, err
}

func scan(s scanner) (domain.Reservation, error) {
	var rv domain.Reservation
	var status string
	if err := s.Scan(&rv.ID, &rv.Email, &rv.FullName, &status, &rv.Checkin, &rv.Checkout); err != nil {
		return domain.Reservation{}, err
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Reservation{}, err
	}
	rv.Status = st
	return rv, nil
}
