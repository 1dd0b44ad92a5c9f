package finance

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pre-flight validation failure
type ErrorKind string

const (
	KindInvalidAmount  ErrorKind = "invalid_amount"
	KindMissingReason  ErrorKind = "missing_reason"
	KindMissingDueDate ErrorKind = "missing_due_date"
	KindInvalidDueDate ErrorKind = "invalid_due_date"
	KindInvalidStatus  ErrorKind = "invalid_status"
)

// ValidationError is returned by the edit validators. It is resolved locally
// and never forwarded to the store.
type ValidationError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(kind ErrorKind, field, message string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: message}
}

// IsKind reports whether err is a ValidationError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}
