package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"volcano_camping/internal/adapters/observability"
	"volcano_camping/internal/domain"
)

const availabilityKeyPrefix = "availability:"

// Clock returns the current instant; "today" is its calendar date.
type Clock func() time.Time

// SystemClock is the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

type CreateInput struct {
	Email    string
	FullName string
	Checkin  domain.Date
	Checkout domain.Date
}

// UpdateInput carries the fields to change. nil, blank strings and zero dates
// keep the stored value.
type UpdateInput struct {
	Email    *string
	FullName *string
	Checkin  *domain.Date
	Checkout *domain.Date
}

type BookingService struct {
	store    domain.ReservationStore
	cache    domain.Cache
	cacheTTL time.Duration
	clock    Clock
	tracer   trace.Tracer
}

// NewBookingService wires the engine. cache may be nil.
func NewBookingService(store domain.ReservationStore, cache domain.Cache, ttl time.Duration, clock Clock) *BookingService {
	if clock == nil {
		clock = SystemClock(time.UTC)
	}
	return &BookingService{
		store:    store,
		cache:    cache,
		cacheTTL: ttl,
		clock:    clock,
		tracer:   otel.Tracer("volcano_camping/app"),
	}
}

func (s *BookingService) today() domain.Date { return domain.DateOf(s.clock()) }

func (s *BookingService) Create(ctx context.Context, in CreateInput) (out domain.Reservation, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.create")
	defer func() { finish(span, "create", err) }()

	switch {
	case blank(in.Email):
		return domain.Reservation{}, domain.InvalidInput(msgEmailRequired)
	case blank(in.FullName):
		return domain.Reservation{}, domain.InvalidInput(msgFullNameRequired)
	case in.Checkin.IsZero():
		return domain.Reservation{}, domain.InvalidInput(msgCheckinRequired)
	case in.Checkout.IsZero():
		return domain.Reservation{}, domain.InvalidInput(msgCheckoutRequired)
	}

	candidate := domain.Reservation{
		ID:       uuid.NewString(),
		Email:    in.Email,
		FullName: in.FullName,
		Status:   domain.StatusActive,
		Checkin:  in.Checkin,
		Checkout: in.Checkout,
	}
	span.SetAttributes(attribute.String("reservation.id", candidate.ID))

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.ReservationTx) error {
		if err := s.validate(ctx, tx, candidate); err != nil {
			return err
		}
		saved, err := tx.Save(ctx, candidate)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.invalidateAvailability(ctx)
	log.Info().
		Str("reservation_id", out.ID).
		Str("checkin", out.Checkin.String()).
		Str("checkout", out.Checkout.String()).
		Msg("reservation created")
	return out, nil
}

func (s *BookingService) Update(ctx context.Context, id string, in UpdateInput) (out domain.Reservation, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.update", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer func() { finish(span, "update", err) }()

	if blank(id) {
		return domain.Reservation{}, domain.InvalidInput(msgIDRequired)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.ReservationTx) error {
		existing, err := tx.FindByID(ctx, id)
		if err != nil {
			return lookupErr(err)
		}
		candidate := merge(existing, in)
		if err := s.validate(ctx, tx, candidate); err != nil {
			return err
		}
		saved, err := tx.Save(ctx, candidate)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.invalidateAvailability(ctx)
	log.Info().
		Str("reservation_id", out.ID).
		Str("checkin", out.Checkin.String()).
		Str("checkout", out.Checkout.String()).
		Msg("reservation updated")
	return out, nil
}

// Cancel only matches ACTIVE reservations, so an already cancelled id reports
// NotFound exactly like an unknown one.
func (s *BookingService) Cancel(ctx context.Context, id string) (out domain.Reservation, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.cancel", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer func() { finish(span, "cancel", err) }()

	if blank(id) {
		return domain.Reservation{}, domain.InvalidInput(msgIDRequired)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.ReservationTx) error {
		existing, err := tx.FindByIDAndStatus(ctx, id, domain.StatusActive)
		if err != nil {
			return lookupErr(err)
		}
		existing.Status = domain.StatusCancelled
		saved, err := tx.Save(ctx, existing)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.invalidateAvailability(ctx)
	log.Info().Str("reservation_id", out.ID).Msg("reservation cancelled")
	return out, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (out domain.Reservation, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.get", trace.WithAttributes(attribute.String("reservation.id", id)))
	defer func() { finish(span, "get", err) }()

	if blank(id) {
		return domain.Reservation{}, domain.InvalidInput(msgIDRequired)
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.ReservationTx) error {
		r, err := tx.FindByID(ctx, id)
		if err != nil {
			return lookupErr(err)
		}
		out = r
		return nil
	})
	return out, err
}

// Availability lists the free dates in [from, to]. Zero from/to default to today
// and today + 1 month. The read takes no write lock, so the answer may be stale by
// the time a create is attempted; Create re-checks under the lock.
func (s *BookingService) Availability(ctx context.Context, from, to domain.Date) (out []domain.Date, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.availability")
	defer func() { finish(span, "availability", err) }()

	today := s.today()
	if from.IsZero() {
		from = today
	}
	if to.IsZero() {
		to = today.AddMonths(1)
	}
	span.SetAttributes(attribute.String("from", from.String()), attribute.String("to", to.String()))

	if err := checkWindow(from, to, today); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s:%s", availabilityKeyPrefix, from, to)
	if s.cache != nil {
		var cached []domain.Date
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.ReservationTx) error {
		rs, err := tx.FindOverlapCandidates(ctx, from, to, domain.StatusActive, false)
		if err != nil {
			return fmt.Errorf("find reservations in range: %w", err)
		}
		out = freeDates(from, to, rs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("availability cache set failed")
		}
	}
	return out, nil
}

// validate runs the stay rules, then probes for conflicts with the write lock held
// until the caller's transaction ends.
func (s *BookingService) validate(ctx context.Context, tx domain.ReservationTx, r domain.Reservation) error {
	if err := checkStay(r, s.today()); err != nil {
		return err
	}
	candidates, err := tx.FindOverlapCandidates(ctx, r.Checkin, r.Checkout, domain.StatusActive, true)
	if err != nil {
		return fmt.Errorf("find overlap candidates: %w", err)
	}
	if !spanFree(r.Checkin, r.Checkout, excludeID(candidates, r.ID)) {
		return domain.InvalidDates(msgDatesUnavailable)
	}
	return nil
}

func (s *BookingService) invalidateAvailability(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DelPrefix(ctx, availabilityKeyPrefix); err != nil {
		log.Warn().Err(err).Msg("availability cache invalidation failed")
	}
}

// merge builds the update candidate from the stored snapshot. Status is always
// reset to ACTIVE.
func merge(existing domain.Reservation, in UpdateInput) domain.Reservation {
	out := existing
	if in.Email != nil && !blank(*in.Email) {
		out.Email = *in.Email
	}
	if in.FullName != nil && !blank(*in.FullName) {
		out.FullName = *in.FullName
	}
	if in.Checkin != nil && !in.Checkin.IsZero() {
		out.Checkin = *in.Checkin
	}
	if in.Checkout != nil && !in.Checkout.IsZero() {
		out.Checkout = *in.Checkout
	}
	out.Status = domain.StatusActive
	return out
}

func lookupErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(msgNotFound)
	}
	return fmt.Errorf("load reservation: %w", err)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func finish(span trace.Span, op string, err error) {
	defer span.End()
	outcome := outcomeOf(err)
	observability.ObserveBooking(op, outcome)
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	if outcome == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("op", op).Msg("booking operation failed")
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return "invalid_input"
	case domain.KindInvalidDates:
		return "invalid_dates"
	case domain.KindNotFound:
		return "not_found"
	}
	return "error"
}
