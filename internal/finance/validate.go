package finance

import (
	"strconv"
	"strings"
	"time"

	"github.com/straye-as/finance-api/internal/filter"
)

// CostEdit is a validated cost change ready for submission
type CostEdit struct {
	NewCost float64
	Reason  string
}

// InstallmentInput is the raw form of an installment add or edit
type InstallmentInput struct {
	Amount    string
	DueDate   string
	Notes     string
	Status    string
	AccountID string
}

// InstallmentPayload is a normalized installment ready for submission
type InstallmentPayload struct {
	Amount    float64
	DueDate   time.Time
	Notes     string
	Status    Status
	AccountID string
}

// ParseAmount parses a monetary value. It reports false for empty,
// non-numeric and non-finite input.
func ParseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}

// ValidateCostEdit checks a proposed project cost change. Zero is a valid
// cost; only non-numeric or negative values are rejected.
func ValidateCostEdit(newCost, reason string) (CostEdit, error) {
	cost, ok := ParseAmount(newCost)
	if !ok || cost < 0 {
		return CostEdit{}, newValidationError(KindInvalidAmount, "newCost", "cost must be a number greater than or equal to 0")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return CostEdit{}, newValidationError(KindMissingReason, "reason", "a reason is required for cost changes")
	}

	return CostEdit{NewCost: cost, Reason: reason}, nil
}

// ValidateReceiptAmount checks the amount of an ad-hoc payment receipt,
// which like an installment must be strictly positive.
func ValidateReceiptAmount(raw string) (float64, error) {
	amount, ok := ParseAmount(raw)
	if !ok || amount <= 0 {
		return 0, newValidationError(KindInvalidAmount, "amount", "amount must be a number greater than 0")
	}
	return amount, nil
}

// ValidateInstallment checks an installment add or edit. The amount must be
// strictly positive and a due date is required; everything else is optional.
// Date-only due dates are interpreted in loc.
func ValidateInstallment(in InstallmentInput, loc *time.Location) (InstallmentPayload, error) {
	amount, ok := ParseAmount(in.Amount)
	if !ok || amount <= 0 {
		return InstallmentPayload{}, newValidationError(KindInvalidAmount, "amount", "amount must be a number greater than 0")
	}

	dueRaw := strings.TrimSpace(in.DueDate)
	if dueRaw == "" {
		return InstallmentPayload{}, newValidationError(KindMissingDueDate, "dueDate", "due date is required")
	}
	dueDate, ok := filter.ParseDate(dueRaw, loc)
	if !ok {
		return InstallmentPayload{}, newValidationError(KindInvalidDueDate, "dueDate", "due date is not a valid date")
	}

	status := Status(strings.ToLower(strings.TrimSpace(in.Status)))
	switch status {
	case "":
		status = StatusPending
	case StatusPending, StatusPaid:
	default:
		return InstallmentPayload{}, newValidationError(KindInvalidStatus, "status", "status must be pending or paid")
	}

	return InstallmentPayload{
		Amount:    amount,
		DueDate:   dueDate,
		Notes:     strings.TrimSpace(in.Notes),
		Status:    status,
		AccountID: strings.TrimSpace(in.AccountID),
	}, nil
}
