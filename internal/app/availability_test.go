package app

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"volcano_camping/internal/domain"
)

var base = domain.NewDate(2026, time.October, 1)

func drawReservations(t *rapid.T) []domain.Reservation {
	n := rapid.IntRange(0, 6).Draw(t, "n")
	rs := make([]domain.Reservation, 0, n)
	for i := 0; i < n; i++ {
		in := rapid.IntRange(0, 40).Draw(t, "checkin")
		nights := rapid.IntRange(1, maxStayNights).Draw(t, "nights")
		rs = append(rs, domain.Reservation{
			ID:       string(rune('a' + i)),
			Status:   domain.StatusActive,
			Checkin:  base.AddDays(in),
			Checkout: base.AddDays(in + nights),
		})
	}
	return rs
}

func TestFreeDates_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rs := drawReservations(t)
		from := base.AddDays(rapid.IntRange(0, 30).Draw(t, "from"))
		to := from.AddDays(rapid.IntRange(1, 20).Draw(t, "len"))

		free := freeDates(from, to, rs)

		for i, d := range free {
			if d.Before(from) || d.After(to) {
				t.Fatalf("%s outside [%s, %s]", d, from, to)
			}
			if i > 0 && !free[i-1].Before(d) {
				t.Fatalf("not strictly ascending at %d: %v", i, free)
			}
			for _, r := range rs {
				if r.Occupies(d) {
					t.Fatalf("%s is occupied by [%s, %s)", d, r.Checkin, r.Checkout)
				}
			}
		}

		// every day in the window is either free or occupied
		occupiedDays := 0
		for d := from; !d.After(to); d = d.AddDays(1) {
			for _, r := range rs {
				if r.Occupies(d) {
					occupiedDays++
					break
				}
			}
		}
		if len(free)+occupiedDays != from.DaysUntil(to)+1 {
			t.Fatalf("free %d + occupied %d != window %d", len(free), occupiedDays, from.DaysUntil(to)+1)
		}
	})
}

func TestSpanFree_MatchesPairwiseOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rs := drawReservations(t)
		in := rapid.IntRange(0, 40).Draw(t, "in")
		checkin := base.AddDays(in)
		checkout := base.AddDays(in + rapid.IntRange(1, maxStayNights).Draw(t, "nights"))

		want := true
		for _, r := range rs {
			if checkin.Before(r.Checkout) && r.Checkin.Before(checkout) {
				want = false
			}
		}
		if got := spanFree(checkin, checkout, rs); got != want {
			t.Fatalf("spanFree([%s, %s)) = %v, want %v", checkin, checkout, got, want)
		}
	})
}

func TestExcludeID(t *testing.T) {
	rs := []domain.Reservation{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := excludeID(rs, "b")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected: %v", got)
	}
	if len(rs) != 3 || rs[1].ID != "b" {
		t.Fatalf("input slice was modified: %v", rs)
	}
	if len(excludeID(rs, "")) != 3 {
		t.Fatalf("empty id must keep everything")
	}
}

func TestCheckStay_Order(t *testing.T) {
	today := domain.NewDate(2026, time.October, 14)
	r := domain.Reservation{Checkin: today.AddDays(-1), Checkout: today.AddDays(-1)}
	// same-day stay in the past reports the length rule first
	if err := checkStay(r, today); domain.KindOf(err) != domain.KindInvalidDates || err.(*domain.Error).Message != msgStayTooShort {
		t.Fatalf("got %v", err)
	}
}
