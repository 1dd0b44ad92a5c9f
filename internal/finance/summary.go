// Package finance holds the reconciliation arithmetic for project finances:
// installment totals, the derived financial summary, the base-cost resolver
// and the pre-flight validators for cost and installment edits.
//
// Everything here is pure and synchronous. Callers convert persisted records
// into the plain input types below.
package finance

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the stored status of an installment
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	// StatusOverdue is only ever derived for display, see DisplayStatus
	StatusOverdue Status = "overdue"
)

// Installment is a scheduled partial payment against a project
type Installment struct {
	Amount  float64
	DueDate time.Time
	Status  Status
}

// CostChange is one entry of a project's cost history
type CostChange struct {
	PreviousCost float64
	NewCost      float64
	ChangedAt    time.Time
}

// ProjectFinancials is the subset of a project consumed by the calculator.
// Nil pointers mean the value was not supplied.
type ProjectFinancials struct {
	TotalCost       *float64
	Budget          float64
	AdvanceReceived *float64
	RemainingAmount *float64
	Installments    []Installment
	CostHistory     []CostChange
	// ApprovedReceipts is the sum of approved ad-hoc receipts when a receipts
	// ledger is available, nil otherwise.
	ApprovedReceipts *float64
}

// Totals is the result of InstallmentTotals
type Totals struct {
	Total   float64 `json:"total"`
	Pending float64 `json:"pending"`
	Paid    float64 `json:"paid"`
}

// FinancialSummary holds the derived monetary aggregates of a project
type FinancialSummary struct {
	TotalCost            float64 `json:"totalCost"`
	Advance              float64 `json:"advance"`
	InstallmentCollected float64 `json:"installmentCollected"`
	TotalCollected       float64 `json:"totalCollected"`
	Scheduled            float64 `json:"scheduled"`
	PendingInstallments  float64 `json:"pendingInstallments"`
	Outstanding          float64 `json:"outstanding"`
	// Split of Advance, only present when the receipts ledger was supplied
	ApprovedReceipts *float64 `json:"approvedReceipts,omitempty"`
	InitialAdvance   *float64 `json:"initialAdvance,omitempty"`
}

// InstallmentTotals sums an installment plan in a single pass. Each
// installment lands on exactly one of Paid or Pending, so Total always equals
// Paid + Pending. Non-finite or negative amounts count as zero.
func InstallmentTotals(plan []Installment) Totals {
	total := decimal.Zero
	paid := decimal.Zero
	pending := decimal.Zero

	for _, inst := range plan {
		amount := decimal.NewFromFloat(nonNegative(inst.Amount))
		total = total.Add(amount)
		if inst.Status == StatusPaid {
			paid = paid.Add(amount)
		} else {
			pending = pending.Add(amount)
		}
	}

	return Totals{
		Total:   total.InexactFloat64(),
		Pending: pending.InexactFloat64(),
		Paid:    paid.InexactFloat64(),
	}
}

// CurrentCost returns totalCost, falling back to budget when it is absent
func (p ProjectFinancials) CurrentCost() float64 {
	if p.TotalCost != nil {
		return finite(*p.TotalCost)
	}
	return finite(p.Budget)
}

// Summarize computes the FinancialSummary of a project.
//
// advanceReceived already nets in paid installments, so the advance proper
// is what remains after subtracting them. A finite stored remainingAmount
// wins over recomputation. Every output is finite.
func Summarize(p ProjectFinancials) FinancialSummary {
	totals := InstallmentTotals(p.Installments)

	totalCost := p.CurrentCost()
	received := 0.0
	if p.AdvanceReceived != nil {
		received = finite(*p.AdvanceReceived)
	}

	summary := FinancialSummary{
		TotalCost:            totalCost,
		Advance:              math.Max(0, received-totals.Paid),
		InstallmentCollected: totals.Paid,
		TotalCollected:       received,
		Scheduled:            totals.Total,
		PendingInstallments:  totals.Pending,
	}

	if p.RemainingAmount != nil && isFinite(*p.RemainingAmount) {
		summary.Outstanding = math.Max(0, *p.RemainingAmount)
	} else {
		summary.Outstanding = math.Max(0, totalCost-received)
	}

	if p.ApprovedReceipts != nil {
		receipts := nonNegative(*p.ApprovedReceipts)
		initial := math.Max(0, summary.Advance-receipts)
		summary.ApprovedReceipts = &receipts
		summary.InitialAdvance = &initial
	}

	return summary
}

// RemainingAfter returns the balance still owed once received has been collected
func RemainingAfter(totalCost, received float64) float64 {
	return math.Max(0, finite(totalCost)-finite(received))
}

// BaseCost returns the original contracted cost: the previousCost of the
// oldest cost-history entry, or the current cost when there is no history.
// The history is sorted by ChangedAt first; entries with equal timestamps
// keep their stored order.
func BaseCost(p ProjectFinancials) float64 {
	if len(p.CostHistory) == 0 {
		return p.CurrentCost()
	}

	history := make([]CostChange, len(p.CostHistory))
	copy(history, p.CostHistory)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].ChangedAt.Before(history[j].ChangedAt)
	})

	return finite(history[0].PreviousCost)
}

// DisplayStatus returns the status to show for an installment at now.
// Unpaid installments past their due date are labelled overdue; the stored
// status is not changed.
func DisplayStatus(inst Installment, now time.Time) Status {
	if inst.Status == StatusPaid {
		return StatusPaid
	}
	if !inst.DueDate.IsZero() && inst.DueDate.Before(now) {
		return StatusOverdue
	}
	if inst.Status == "" {
		return StatusPending
	}
	return inst.Status
}

// SortByDueDate orders installments by due date in place, undated ones last
func SortByDueDate[T any](items []T, dueDate func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := dueDate(items[i]), dueDate(items[j])
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.Before(b)
	})
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finite(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}
