package finance_test

import (
	"testing"
	"time"

	"github.com/straye-as/finance-api/internal/finance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCostEdit(t *testing.T) {
	tests := []struct {
		name     string
		newCost  string
		reason   string
		wantKind finance.ErrorKind
		wantCost float64
	}{
		{name: "negative cost", newCost: "-5", reason: "rebate", wantKind: finance.KindInvalidAmount},
		{name: "not a number", newCost: "abc", reason: "rebate", wantKind: finance.KindInvalidAmount},
		{name: "empty cost", newCost: "", reason: "rebate", wantKind: finance.KindInvalidAmount},
		{name: "infinite cost", newCost: "Inf", reason: "rebate", wantKind: finance.KindInvalidAmount},
		{name: "NaN cost", newCost: "NaN", reason: "rebate", wantKind: finance.KindInvalidAmount},
		{name: "blank reason", newCost: "100", reason: "   ", wantKind: finance.KindMissingReason},
		{name: "zero is allowed", newCost: "0", reason: "written off", wantCost: 0},
		{name: "padded number", newCost: " 2500.50 ", reason: "scope change", wantCost: 2500.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit, err := finance.ValidateCostEdit(tt.newCost, tt.reason)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.True(t, finance.IsKind(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, edit.NewCost)
		})
	}

	t.Run("reason is trimmed", func(t *testing.T) {
		edit, err := finance.ValidateCostEdit("10", "  extra floor  ")
		require.NoError(t, err)
		assert.Equal(t, "extra floor", edit.Reason)
	})

	t.Run("amount is checked before reason", func(t *testing.T) {
		_, err := finance.ValidateCostEdit("-1", "")
		assert.True(t, finance.IsKind(err, finance.KindInvalidAmount))
	})
}

func TestValidateInstallment(t *testing.T) {
	loc := time.UTC

	t.Run("zero amount rejected", func(t *testing.T) {
		_, err := finance.ValidateInstallment(finance.InstallmentInput{Amount: "0", DueDate: "2024-05-01"}, loc)
		assert.True(t, finance.IsKind(err, finance.KindInvalidAmount))
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := finance.ValidateInstallment(finance.InstallmentInput{Amount: "-10", DueDate: "2024-05-01"}, loc)
		assert.True(t, finance.IsKind(err, finance.KindInvalidAmount))
	})

	t.Run("missing due date", func(t *testing.T) {
		_, err := finance.ValidateInstallment(finance.InstallmentInput{Amount: "10", DueDate: "  "}, loc)
		assert.True(t, finance.IsKind(err, finance.KindMissingDueDate))
	})

	t.Run("garbage due date", func(t *testing.T) {
		_, err := finance.ValidateInstallment(finance.InstallmentInput{Amount: "10", DueDate: "next tuesday"}, loc)
		assert.True(t, finance.IsKind(err, finance.KindInvalidDueDate))
	})

	t.Run("overdue cannot be stored", func(t *testing.T) {
		_, err := finance.ValidateInstallment(finance.InstallmentInput{Amount: "10", DueDate: "2024-05-01", Status: "overdue"}, loc)
		assert.True(t, finance.IsKind(err, finance.KindInvalidStatus))
	})

	t.Run("normalizes payload", func(t *testing.T) {
		p, err := finance.ValidateInstallment(finance.InstallmentInput{
			Amount:    "1500.25",
			DueDate:   "2024-05-01",
			Notes:     "  second tranche ",
			AccountID: " acc ",
		}, loc)
		require.NoError(t, err)
		assert.Equal(t, 1500.25, p.Amount)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, loc), p.DueDate)
		assert.Equal(t, "second tranche", p.Notes)
		assert.Equal(t, finance.StatusPending, p.Status)
		assert.Equal(t, "acc", p.AccountID)
	})

	t.Run("accepts paid status", func(t *testing.T) {
		p, err := finance.ValidateInstallment(finance.InstallmentInput{Amount: "1", DueDate: "2024-05-01T10:00:00Z", Status: "PAID"}, loc)
		require.NoError(t, err)
		assert.Equal(t, finance.StatusPaid, p.Status)
	})

	// The installment validator requires > 0 while the cost validator allows 0.
	t.Run("boundaries differ from cost edits", func(t *testing.T) {
		_, costErr := finance.ValidateCostEdit("0", "reason")
		_, instErr := finance.ValidateInstallment(finance.InstallmentInput{Amount: "0", DueDate: "2024-05-01"}, loc)
		assert.NoError(t, costErr)
		assert.Error(t, instErr)
	})
}

func TestParseAmount(t *testing.T) {
	v, ok := finance.ParseAmount("12.5")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = finance.ParseAmount("12,5")
	assert.False(t, ok)

	_, ok = finance.ParseAmount("+Inf")
	assert.False(t, ok)
}

func TestValidateReceiptAmount(t *testing.T) {
	v, err := finance.ValidateReceiptAmount(" 250.50 ")
	require.NoError(t, err)
	assert.Equal(t, 250.5, v)

	for _, raw := range []string{"0", "-1", "", "ten", "Inf"} {
		_, err := finance.ValidateReceiptAmount(raw)
		assert.True(t, finance.IsKind(err, finance.KindInvalidAmount), raw)
	}
}
