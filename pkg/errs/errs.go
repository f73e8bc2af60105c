package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidTransition Kind = "invalid_transition"
	KindInsufficientStock Kind = "insufficient_stock"
	KindConstraint        Kind = "constraint_violation"
	KindCouponRejected    Kind = "coupon_rejected"
	KindAlreadyConfirmed  Kind = "already_confirmed"
	KindPaymentFailed     Kind = "payment_failed"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

// Error carries a kind so handlers can map domain failures to responses
// without string matching. Subreason is set for coupon rejections and
// similar cases where callers need more than the kind.
type Error struct {
	ErrKind   Kind
	Message   string
	Subreason string
	Field     string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{ErrKind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{ErrKind: kind, Message: message, Err: err}
}

func NotFound(what string) *Error {
	return &Error{ErrKind: KindNotFound, Message: what + " not found"}
}

func InvalidInput(message string) *Error {
	return &Error{ErrKind: KindInvalidInput, Message: message}
}

// InvalidField is InvalidInput with the offending field attached.
func InvalidField(field, message string) *Error {
	return &Error{ErrKind: KindInvalidInput, Message: message, Field: field}
}

func InvalidTransition(from, to string) *Error {
	return &Error{ErrKind: KindInvalidTransition, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

func InsufficientStock(message string) *Error {
	return &Error{ErrKind: KindInsufficientStock, Message: message}
}

func Constraint(message string) *Error {
	return &Error{ErrKind: KindConstraint, Message: message}
}

func CouponRejected(subreason, message string) *Error {
	return &Error{ErrKind: KindCouponRejected, Message: message, Subreason: subreason}
}

func AlreadyConfirmed(message string) *Error {
	return &Error{ErrKind: KindAlreadyConfirmed, Message: message}
}

func PaymentFailed(message string, err error) *Error {
	return &Error{ErrKind: KindPaymentFailed, Message: message, Err: err}
}

func Forbidden(message string) *Error {
	return &Error{ErrKind: KindForbidden, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{ErrKind: KindUnauthorized, Message: message}
}

// KindOf reports the kind of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrKind
	}
	return KindInternal
}

func SubreasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Subreason
	}
	return ""
}

func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindInsufficientStock, KindCouponRejected:
		return http.StatusBadRequest
	case KindInvalidTransition, KindConstraint, KindAlreadyConfirmed:
		return http.StatusConflict
	case KindPaymentFailed:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
