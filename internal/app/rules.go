package app

import "volcano_camping/internal/domain"

const maxStayNights = 3

const (
	msgEmailRequired    = "Email is required."
	msgFullNameRequired = "Full name is required."
	msgCheckinRequired  = "Checkin date is required."
	msgCheckoutRequired = "Checkout date is required."
	msgIDRequired       = "Reservation id is required."

	msgCheckoutBeforeCheckin = "The checkout date should be after the checkin date."
	msgStayTooLong           = "The length of the stay cannot be longer than 3 days."
	msgStayTooShort          = "The checkout date should be at least a day after the checkin date."
	msgCheckinTooSoon        = "The checkin date needs to be at least one day in the future."
	msgCheckoutTooFar        = "The checkout date cannot be more than a month in the future."
	msgDatesUnavailable      = "The dates selected are not available."

	msgToBeforeFrom = "The toDate should be after the fromDate."
	msgToTooFar     = "The toDate cannot be more than a month in the future."

	msgNotFound = "No reservation was found for provided reservation id."
)

// checkStay applies the stay rules in their fixed order and reports the first
// one broken. Availability is checked separately, under the write lock.
func checkStay(r domain.Reservation, today domain.Date) error {
	switch {
	case r.Checkin.After(r.Checkout):
		return domain.InvalidDates(msgCheckoutBeforeCheckin)
	case r.Nights() > maxStayNights:
		return domain.InvalidDates(msgStayTooLong)
	case r.Checkout.Equal(r.Checkin):
		return domain.InvalidDates(msgStayTooShort)
	case !r.Checkin.After(today):
		return domain.InvalidDates(msgCheckinTooSoon)
	case !r.Checkout.Before(today.AddMonths(1)):
		return domain.InvalidDates(msgCheckoutTooFar)
	}
	return nil
}

// checkWindow validates an availability query window. to may be today + 1 month
// itself, one day later than the latest allowed checkout.
func checkWindow(from, to, today domain.Date) error {
	if !to.After(from) {
		return domain.InvalidDates(msgToBeforeFrom)
	}
	if !to.Before(today.AddMonths(1).AddDays(1)) {
		return domain.InvalidDates(msgToTooFar)
	}
	return nil
}
