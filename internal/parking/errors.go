package parking

import "errors"

// Reason classifies a recoverable ledger failure.
type Reason string

const (
	ReasonInvalidClass  Reason = "invalid_class"
	ReasonAlreadyParked Reason = "already_parked"
	ReasonLotFull       Reason = "lot_full"
	ReasonInvalidSlot   Reason = "invalid_slot"
	ReasonAlreadyEmpty  Reason = "already_empty"
	ReasonNotFound      Reason = "not_found"
)

// Error is returned by ledger operations. Message is meant for end users.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return e.Message
}

// Is matches any *Error carrying the same reason, so callers can write
// errors.Is(err, parking.ErrLotFull).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

var (
	ErrInvalidClass  = &Error{Reason: ReasonInvalidClass}
	ErrAlreadyParked = &Error{Reason: ReasonAlreadyParked}
	ErrLotFull       = &Error{Reason: ReasonLotFull}
	ErrInvalidSlot   = &Error{Reason: ReasonInvalidSlot}
	ErrAlreadyEmpty  = &Error{Reason: ReasonAlreadyEmpty}
	ErrNotFound      = &Error{Reason: ReasonNotFound}
)

var (
	ErrInvalidConfig     = errors.New("invalid ledger configuration")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// ReasonOf extracts the reason code from a ledger error, or "" if err is not one.
func ReasonOf(err error) Reason {
	var le *Error
	if errors.As(err, &le) {
		return le.Reason
	}
	return ""
}

func newError(reason Reason, message string) *Error {
	return &Error{Reason: reason, Message: message}
}
