package finance_test

import (
	"math"
	"testing"
	"time"

	"github.com/straye-as/finance-api/internal/finance"
	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestInstallmentTotals(t *testing.T) {
	t.Run("nil plan", func(t *testing.T) {
		assert.Equal(t, finance.Totals{}, finance.InstallmentTotals(nil))
	})

	t.Run("empty plan", func(t *testing.T) {
		assert.Equal(t, finance.Totals{}, finance.InstallmentTotals([]finance.Installment{}))
	})

	t.Run("splits paid and pending", func(t *testing.T) {
		totals := finance.InstallmentTotals([]finance.Installment{
			{Amount: 20000, Status: finance.StatusPaid},
			{Amount: 30000, Status: finance.StatusPending},
			{Amount: 5000, Status: "overdue"},
		})
		assert.Equal(t, 55000.0, totals.Total)
		assert.Equal(t, 20000.0, totals.Paid)
		assert.Equal(t, 35000.0, totals.Pending)
	})

	t.Run("non-finite and negative amounts count as zero", func(t *testing.T) {
		totals := finance.InstallmentTotals([]finance.Installment{
			{Amount: math.NaN(), Status: finance.StatusPaid},
			{Amount: math.Inf(1), Status: finance.StatusPending},
			{Amount: -250, Status: finance.StatusPending},
			{Amount: 100, Status: finance.StatusPending},
		})
		assert.Equal(t, finance.Totals{Total: 100, Pending: 100, Paid: 0}, totals)
	})

	t.Run("many small amounts stay exact", func(t *testing.T) {
		plan := make([]finance.Installment, 1000)
		for i := range plan {
			plan[i] = finance.Installment{Amount: 0.1, Status: finance.StatusPending}
		}
		totals := finance.InstallmentTotals(plan)
		assert.Equal(t, 100.0, totals.Total)
		assert.Equal(t, 100.0, totals.Pending)
	})
}

func TestSummarize_ScheduledInvariant(t *testing.T) {
	plans := [][]finance.Installment{
		nil,
		{{Amount: 1, Status: finance.StatusPaid}},
		{{Amount: 0.1, Status: finance.StatusPaid}, {Amount: 0.2, Status: finance.StatusPending}},
		{{Amount: 1234.56, Status: finance.StatusPending}, {Amount: 99.99, Status: finance.StatusPaid}, {Amount: -3, Status: finance.StatusPaid}},
		{{Amount: math.NaN(), Status: finance.StatusPending}, {Amount: 7, Status: ""}},
	}

	for _, plan := range plans {
		s := finance.Summarize(finance.ProjectFinancials{Installments: plan})
		assert.InDelta(t, s.Scheduled, s.InstallmentCollected+s.PendingInstallments, 1e-9)
	}
}

func TestSummarize_ReferenceProject(t *testing.T) {
	s := finance.Summarize(finance.ProjectFinancials{
		TotalCost:       ptr(100000),
		AdvanceReceived: ptr(40000),
		Installments: []finance.Installment{
			{Amount: 20000, Status: finance.StatusPaid},
			{Amount: 30000, Status: finance.StatusPending},
		},
	})

	assert.Equal(t, 100000.0, s.TotalCost)
	assert.Equal(t, 20000.0, s.InstallmentCollected)
	assert.Equal(t, 20000.0, s.Advance)
	assert.Equal(t, 40000.0, s.TotalCollected)
	assert.Equal(t, 50000.0, s.Scheduled)
	assert.Equal(t, 30000.0, s.PendingInstallments)
	assert.Equal(t, 60000.0, s.Outstanding)
	assert.Nil(t, s.ApprovedReceipts)
	assert.Nil(t, s.InitialAdvance)
}

func TestSummarize_Defaults(t *testing.T) {
	t.Run("budget stands in for missing total cost", func(t *testing.T) {
		s := finance.Summarize(finance.ProjectFinancials{Budget: 5000})
		assert.Equal(t, 5000.0, s.TotalCost)
		assert.Equal(t, 0.0, s.TotalCollected)
		assert.Equal(t, 5000.0, s.Outstanding)
	})

	t.Run("explicit zero total cost is kept", func(t *testing.T) {
		s := finance.Summarize(finance.ProjectFinancials{TotalCost: ptr(0), Budget: 5000})
		assert.Equal(t, 0.0, s.TotalCost)
	})

	t.Run("stored remaining amount wins", func(t *testing.T) {
		s := finance.Summarize(finance.ProjectFinancials{
			TotalCost:       ptr(1000),
			AdvanceReceived: ptr(100),
			RemainingAmount: ptr(42),
		})
		assert.Equal(t, 42.0, s.Outstanding)
	})

	t.Run("negative stored remaining amount is clamped", func(t *testing.T) {
		s := finance.Summarize(finance.ProjectFinancials{RemainingAmount: ptr(-10)})
		assert.Equal(t, 0.0, s.Outstanding)
	})

	t.Run("non-finite stored remaining amount is recomputed", func(t *testing.T) {
		s := finance.Summarize(finance.ProjectFinancials{
			TotalCost:       ptr(1000),
			AdvanceReceived: ptr(250),
			RemainingAmount: ptr(math.NaN()),
		})
		assert.Equal(t, 750.0, s.Outstanding)
	})
}

func TestSummarize_NeverNegative(t *testing.T) {
	inputs := []finance.ProjectFinancials{
		{TotalCost: ptr(-100), AdvanceReceived: ptr(50)},
		{TotalCost: ptr(100), AdvanceReceived: ptr(10), Installments: []finance.Installment{{Amount: 500, Status: finance.StatusPaid}}},
		{TotalCost: ptr(math.Inf(-1)), AdvanceReceived: ptr(math.NaN()), RemainingAmount: ptr(math.Inf(1))},
		{AdvanceReceived: ptr(-5000), Installments: []finance.Installment{{Amount: -1, Status: finance.StatusPending}}},
		{TotalCost: ptr(10), AdvanceReceived: ptr(1e9)},
	}

	for _, in := range inputs {
		s := finance.Summarize(in)
		assert.GreaterOrEqual(t, s.Advance, 0.0)
		assert.GreaterOrEqual(t, s.Outstanding, 0.0)
		assert.GreaterOrEqual(t, s.PendingInstallments, 0.0)
		for _, v := range []float64{s.TotalCost, s.Advance, s.InstallmentCollected, s.TotalCollected, s.Scheduled, s.PendingInstallments, s.Outstanding} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestSummarize_AdvanceSplit(t *testing.T) {
	s := finance.Summarize(finance.ProjectFinancials{
		TotalCost:        ptr(100000),
		AdvanceReceived:  ptr(45000),
		ApprovedReceipts: ptr(5000),
		Installments: []finance.Installment{
			{Amount: 20000, Status: finance.StatusPaid},
		},
	})

	assert.Equal(t, 25000.0, s.Advance)
	if assert.NotNil(t, s.ApprovedReceipts) && assert.NotNil(t, s.InitialAdvance) {
		assert.Equal(t, 5000.0, *s.ApprovedReceipts)
		assert.Equal(t, 20000.0, *s.InitialAdvance)
	}

	t.Run("receipts larger than advance clamp initial advance", func(t *testing.T) {
		s := finance.Summarize(finance.ProjectFinancials{AdvanceReceived: ptr(100), ApprovedReceipts: ptr(400)})
		assert.Equal(t, 0.0, *s.InitialAdvance)
	})
}

func TestBaseCost(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }

	t.Run("falls back to total cost", func(t *testing.T) {
		assert.Equal(t, 900.0, finance.BaseCost(finance.ProjectFinancials{TotalCost: ptr(900), Budget: 100}))
	})

	t.Run("falls back to budget", func(t *testing.T) {
		assert.Equal(t, 100.0, finance.BaseCost(finance.ProjectFinancials{Budget: 100}))
	})

	t.Run("uses oldest entry", func(t *testing.T) {
		p := finance.ProjectFinancials{
			TotalCost: ptr(1500),
			CostHistory: []finance.CostChange{
				{PreviousCost: 1000, NewCost: 1200, ChangedAt: day(1)},
				{PreviousCost: 1200, NewCost: 1500, ChangedAt: day(5)},
			},
		}
		assert.Equal(t, 1000.0, finance.BaseCost(p))
	})

	// The store does not guarantee insertion order, so the history is sorted
	// by changedAt before the first entry is read.
	t.Run("out of order history is sorted", func(t *testing.T) {
		history := []finance.CostChange{
			{PreviousCost: 1200, NewCost: 1500, ChangedAt: day(5)},
			{PreviousCost: 1000, NewCost: 1200, ChangedAt: day(1)},
		}
		p := finance.ProjectFinancials{TotalCost: ptr(1500), CostHistory: history}
		assert.Equal(t, 1000.0, finance.BaseCost(p))
		assert.Equal(t, 1200.0, history[0].PreviousCost, "input slice must not be reordered")
	})

	t.Run("equal timestamps keep stored order", func(t *testing.T) {
		p := finance.ProjectFinancials{CostHistory: []finance.CostChange{
			{PreviousCost: 10, ChangedAt: day(2)},
			{PreviousCost: 20, ChangedAt: day(2)},
		}}
		assert.Equal(t, 10.0, finance.BaseCost(p))
	})
}

func TestDisplayStatus(t *testing.T) {
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	assert.Equal(t, finance.StatusOverdue, finance.DisplayStatus(finance.Installment{DueDate: past, Status: finance.StatusPending}, now))
	assert.Equal(t, finance.StatusPaid, finance.DisplayStatus(finance.Installment{DueDate: past, Status: finance.StatusPaid}, now))
	assert.Equal(t, finance.StatusPending, finance.DisplayStatus(finance.Installment{DueDate: future, Status: finance.StatusPending}, now))
	assert.Equal(t, finance.StatusPending, finance.DisplayStatus(finance.Installment{Status: ""}, now))
}

func TestSortByDueDate(t *testing.T) {
	d := func(m time.Month) time.Time { return time.Date(2024, m, 1, 0, 0, 0, 0, time.UTC) }
	items := []finance.Installment{
		{Amount: 3, DueDate: d(time.March)},
		{Amount: 0},
		{Amount: 1, DueDate: d(time.January)},
		{Amount: 2, DueDate: d(time.February)},
	}

	finance.SortByDueDate(items, func(i finance.Installment) time.Time { return i.DueDate })

	var order []float64
	for _, i := range items {
		order = append(order, i.Amount)
	}
	assert.Equal(t, []float64{1, 2, 3, 0}, order)
}
