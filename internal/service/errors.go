package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	ErrClientNotFound      = errors.New("client not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrReceiptNotFound     = errors.New("receipt not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAttachmentNotFound  = errors.New("attachment not found")

	// ErrDuplicateProjectCode is returned when another project already uses the ERP code
	ErrDuplicateProjectCode = errors.New("project code is already in use")

	// ErrInstallmentAlreadyPaid is returned when paying an installment twice
	ErrInstallmentAlreadyPaid = errors.New("installment is already paid")

	// ErrReceiptAlreadyReviewed is returned when approving or rejecting a receipt that is not pending
	ErrReceiptAlreadyReviewed = errors.New("receipt has already been reviewed")
)

// RejectionError is a failure reported by the store while applying a
// mutation. Its message is shown to the caller as is.
type RejectionError struct {
	Op  string
	Err error
}

func (e *RejectionError) Error() string {
	return e.Err.Error()
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

func reject(op string, err error) error {
	return &RejectionError{Op: op, Err: err}
}

// notFound translates gorm.ErrRecordNotFound into the given sentinel and
// wraps anything else with msg
func notFound(err error, sentinel error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// notFoundOrReject is notFound for mutations: other failures become a RejectionError
func notFoundOrReject(err error, sentinel error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return reject(op, err)
}
