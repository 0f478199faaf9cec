package trading

import (
	"errors"
	"fmt"
)

// Canonical error kinds. Connectors map vendor error codes onto these so
// callers can branch with errors.Is regardless of which venue failed.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrBadRequest         = errors.New("bad request")
	ErrOrderNotFound      = errors.New("order not found")
	ErrArgumentsRequired  = errors.New("arguments required")
	ErrCredentialsMissing = errors.New("credentials missing")
	ErrExchange           = errors.New("exchange error")
)

// Error is a classified exchange failure. Kind is one of the sentinel
// errors above; Code and Message preserve the original vendor detail for
// diagnosis.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func NewError(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%v: %s (code %s)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }
