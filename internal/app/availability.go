package app

import "volcano_camping/internal/domain"

// occupied is the union of the half-open spans of rs.
func occupied(rs []domain.Reservation) map[domain.Date]struct{} {
	set := make(map[domain.Date]struct{}, len(rs)*maxStayNights)
	for _, r := range rs {
		for d := r.Checkin; d.Before(r.Checkout); d = d.AddDays(1) {
			set[d] = struct{}{}
		}
	}
	return set
}

// freeDates lists every date in [from, to] not occupied by rs, ascending.
func freeDates(from, to domain.Date, rs []domain.Reservation) []domain.Date {
	taken := occupied(rs)
	out := make([]domain.Date, 0, from.DaysUntil(to)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		if _, ok := taken[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}

// spanFree reports whether every date of [checkin, checkout) is unoccupied by rs.
func spanFree(checkin, checkout domain.Date, rs []domain.Reservation) bool {
	taken := occupied(rs)
	for d := checkin; d.Before(checkout); d = d.AddDays(1) {
		if _, ok := taken[d]; ok {
			return false
		}
	}
	return true
}

func excludeID(rs []domain.Reservation, id string) []domain.Reservation {
	if id == "" {
		return rs
	}
	out := rs[:0:0]
	for _, r := range rs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
