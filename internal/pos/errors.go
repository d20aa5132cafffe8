package pos

import (
	"errors"
	"fmt"
)

// Validation failures. Each is returned wrapped in a *ValidationError carrying
// the message shown to the operator; match them with errors.Is.
var (
	ErrNoCustomer          = errors.New("no customer selected")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidNumber       = errors.New("invalid number")
	ErrNonPositiveAmount   = errors.New("amount must be greater than zero")
	ErrReferenceRequired   = errors.New("payment method requires a reference")
	ErrInsufficientPayment = errors.New("paid amount is less than the total")
	ErrZeroOriginalPrice   = errors.New("original unit price is zero")
	ErrZeroExchangeRate    = errors.New("exchange rate is zero")
	ErrNegativePrice       = errors.New("price cannot be negative")
	ErrDiscountRange       = errors.New("discount cannot exceed 100 percent")
	ErrLineNotFound        = errors.New("line not found")
	ErrPaymentIndex        = errors.New("payment index out of range")
	ErrInvalidState        = errors.New("operation not allowed in the current state")
	ErrRequestInFlight     = errors.New("a request for this order is already in progress")
)

// ErrStaleResponse is returned when a collaborator answered for an order
// document that has since been reset, finalized or replaced. The response is discarded.
var ErrStaleResponse = errors.New("response no longer matches the current order")

// ValidationError is a synchronous, recoverable refusal. No state was changed.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Err: err}
}

// CollaboratorError reports a failed or refused call to the backend.
// The engine state is exactly as it was before the call.
type CollaboratorError struct {
	Op      string
	Message string // backend-provided refusal text, empty on transport failure
	Err     error
}

func (e *CollaboratorError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// UserMessage is the short text shown to the operator.
func (e *CollaboratorError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred. Please try again."
}
