package domain

import "fmt"

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown reservation status %q", s)
}

// Reservation is a single booking of the campsite.
// It occupies the half-open span [Checkin, Checkout) while ACTIVE.
type Reservation struct {
	ID       string
	Email    string
	FullName string
	Status   Status
	Checkin  Date
	Checkout Date
}

func (r Reservation) Active() bool { return r.Status == StatusActive }

// Nights is the stay length in days.
func (r Reservation) Nights() int { return r.Checkin.DaysUntil(r.Checkout) }

// Occupies reports whether d falls inside [Checkin, Checkout).
func (r Reservation) Occupies(d Date) bool {
	return !d.Before(r.Checkin) && d.Before(r.Checkout)
}
