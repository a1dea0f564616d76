package entity

import "errors"

// ErrorKind classifies domain errors so the transport layer can tell
// "bad request", "forbidden", "not found" and "conflict" outcomes apart.
type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindValidation    ErrorKind = "validation"
	KindInventory     ErrorKind = "inventory"
	KindState         ErrorKind = "state"
	KindConflict      ErrorKind = "conflict"
)

// Error is a client-facing domain error with a stable machine-readable code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	// Authorization errors
	ErrNotACustomer   = newError(KindAuthorization, "not_a_customer", "You are not a customer.")
	ErrNotAnOrganiser = newError(KindAuthorization, "not_an_organiser", "You are not an event organiser.")
	ErrNotAValidUser  = newError(KindAuthorization, "not_a_valid_user", "Not a valid user.")
	ErrNotOwner       = newError(KindAuthorization, "not_owner", "You are not authorised to cancel this booking.")
	ErrNotEventOwner  = newError(KindAuthorization, "not_event_owner", "You're not authorised to perform this.")

	// Not found errors
	ErrEventNotFound   = newError(KindNotFound, "event_not_found", "event not found")
	ErrItemNotFound    = newError(KindNotFound, "ticket_not_found", "You have not provided a valid ticket.")
	ErrBookingNotFound = newError(KindNotFound, "booking_not_found", "booking not found")
	ErrUserNotFound    = newError(KindNotFound, "user_not_found", "user not found")

	// Validation errors
	ErrInvalidLineData = newError(KindValidation, "invalid_line_data", "booking lines must reference a ticket and a positive count")
	ErrInvalidInput    = newError(KindValidation, "invalid_input", "invalid input")
	ErrInvalidTierKind = newError(KindValidation, "invalid_ticket_type", "unknown ticket type")

	// Inventory errors
	ErrItemNotAvailable         = newError(KindInventory, "ticket_not_available", "Seat not available.")
	ErrInsufficientAvailability = newError(KindInventory, "insufficient_availability", "You're booking more than available seats.")
	ErrAvailabilityOverflow     = newError(KindInventory, "availability_overflow", "release would exceed total allotment")

	// State errors
	ErrAlreadyCancelled = newError(KindState, "already_cancelled", "booking is already cancelled")
	ErrEventHasBookings = newError(KindState, "event_has_bookings", "cannot delete event with existing bookings")
	ErrEmailTaken       = newError(KindState, "email_taken", "a user with this email already exists")

	// ErrConcurrentUpdate marks lock conflicts (deadlock, serialization
	// failure) that are safe to retry as a whole transaction.
	ErrConcurrentUpdate = newError(KindConflict, "concurrent_update", "concurrent update detected")
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}
