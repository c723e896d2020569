package validation

import (
	"fmt"
	"strings"

	"bookmirror/internal/domain"
	"bookmirror/internal/models"
)

// Result is the outcome of validating one record. Violations keep the
// order the rules were evaluated in.
type Result struct {
	Violations []string
}

func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// Err converts the result into a ValidationError, nil when valid.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return domain.NewValidationError(r.Violations)
}

// ValidateBooking checks every business rule independently and
// collects all violations in one pass.
func ValidateBooking(in models.BookingInput) Result {
	var violations []string

	if in.LeadTime < 0 {
		violations = append(violations, fmt.Sprintf("lead_time must be >= 0, got %d", in.LeadTime))
	}
	if in.Adults <= 0 {
		violations = append(violations, fmt.Sprintf("adults must be > 0, got %d", in.Adults))
	}
	if !models.ValidStatus(in.ReservationStatus) {
		violations = append(violations, fmt.Sprintf(
			"reservation_status must be one of %s, got %q",
			strings.Join(models.ReservationStatuses, ", "), in.ReservationStatus))
	}

	return Result{Violations: violations}
}

// ValidateBookingUpdate checks only the fields the update touches.
func ValidateBookingUpdate(upd models.BookingUpdate) Result {
	var violations []string

	if upd.ReservationStatus != nil && !models.ValidStatus(*upd.ReservationStatus) {
		violations = append(violations, fmt.Sprintf(
			"reservation_status must be one of %s, got %q",
			strings.Join(models.ReservationStatuses, ", "), *upd.ReservationStatus))
	}
	if upd.ADR != nil && *upd.ADR < 0 {
		violations = append(violations, fmt.Sprintf("adr must be >= 0, got %v", *upd.ADR))
	}
	if upd.BookingChanges != nil && *upd.BookingChanges < 0 {
		violations = append(violations, fmt.Sprintf("booking_changes must be >= 0, got %d", *upd.BookingChanges))
	}

	return Result{Violations: violations}
}

// ValidateHotel checks rules for a new hotel.
func ValidateHotel(in models.HotelInput) Result {
	var violations []string

	if strings.TrimSpace(in.HotelName) == "" {
		violations = append(violations, "hotel_name must not be empty")
	}

	return Result{Violations: violations}
}

// ValidateGuest checks rules for a new guest.
func ValidateGuest(in models.GuestInput) Result {
	var violations []string

	if len(in.Country) != 3 {
		violations = append(violations, fmt.Sprintf("country must be exactly 3 characters, got %q", in.Country))
	}

	return Result{Violations: violations}
}
