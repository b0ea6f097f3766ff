package httpserver

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"volcano_camping/internal/app"
	"volcano_camping/internal/domain"
)

const maxTextLen = 255

type createReservationRequest struct {
	Email    string       `json:"email" validate:"required,max=255"`
	FullName string       `json:"fullName" validate:"required,max=255"`
	Checkin  *domain.Date `json:"checkin" validate:"required"`
	Checkout *domain.Date `json:"checkout" validate:"required"`
}

func (r createReservationRequest) input() app.CreateInput {
	in := app.CreateInput{Email: r.Email, FullName: r.FullName}
	if r.Checkin != nil {
		in.Checkin = *r.Checkin
	}
	if r.Checkout != nil {
		in.Checkout = *r.Checkout
	}
	return in
}

// updateReservationRequest accepts any subset of the fields.
type updateReservationRequest struct {
	Email    *string      `json:"email" validate:"omitempty,max=255"`
	FullName *string      `json:"fullName" validate:"omitempty,max=255"`
	Checkin  *domain.Date `json:"checkin"`
	Checkout *domain.Date `json:"checkout"`
}

func (r updateReservationRequest) input() app.UpdateInput {
	return app.UpdateInput{Email: r.Email, FullName: r.FullName, Checkin: r.Checkin, Checkout: r.Checkout}
}

type reservationResponse struct {
	ID       string        `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"fullName"`
	Status   domain.Status `json:"status"`
	Checkin  domain.Date   `json:"checkin"`
	Checkout domain.Date   `json:"checkout"`
}

func toResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:       r.ID,
		Email:    r.Email,
		FullName: r.FullName,
		Status:   r.Status,
		Checkin:  r.Checkin,
		Checkout: r.Checkout,
	}
}

// requiredMessages match the engine's own wording, so a missing field reads the
// same whichever layer catches it.
var requiredMessages = map[string]string{
	"email":    "Email is required.",
	"fullName": "Full name is required.",
	"checkin":  "Checkin date is required.",
	"checkout": "Checkout date is required.",
}

var fieldLabels = map[string]string{
	"email":    "Email",
	"fullName": "Full name",
}

type requestValidator struct{ v *validator.Validate }

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

// Validate reports the first failing field, in declaration order, as an
// InvalidInput error.
func (rv *requestValidator) Validate(req any) error {
	err := rv.v.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[fe.Field()]; ok {
			return domain.InvalidInput(msg)
		}
		return domain.InvalidInput(fmt.Sprintf("%s is required.", fe.Field()))
	case "max":
		label := fieldLabels[fe.Field()]
		if label == "" {
			label = fe.Field()
		}
		return domain.InvalidInput(fmt.Sprintf("%s must be at most %d characters.", label, maxTextLen))
	}
	return domain.InvalidInput(fmt.Sprintf("%s is invalid.", fe.Field()))
}
