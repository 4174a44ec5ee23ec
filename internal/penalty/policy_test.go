package penalty

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kapatiran/lending-engine/internal/domain"
)

func testInstallment(status string) domain.Installment {
	return domain.Installment{
		WeekNumber: 3,
		AmountDue:  decimal.RequireFromString("632.31"),
		DueDate:    time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
		Status:     status,
	}
}

func TestAssess(t *testing.T) {
	dayBefore := time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC)
	dayAfter := time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC)
	weeksAfter := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		status          string
		asOf            time.Time
		expectedDue     decimal.Decimal
		expectedPenalty decimal.Decimal
		expectedOverdue bool
	}{
		{
			name:            "not yet due",
			status:          domain.InstallmentStatusUnpaid,
			asOf:            dayBefore,
			expectedDue:     decimal.RequireFromString("632.31"),
			expectedPenalty: decimal.Zero,
			expectedOverdue: false,
		},
		{
			name:            "due date itself is not overdue",
			status:          domain.InstallmentStatusUnpaid,
			asOf:            time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
			expectedDue:     decimal.RequireFromString("632.31"),
			expectedPenalty: decimal.Zero,
			expectedOverdue: false,
		},
		{
			name:            "unpaid past due gets the flat surcharge",
			status:          domain.InstallmentStatusUnpaid,
			asOf:            dayAfter,
			expectedDue:     decimal.RequireFromString("663.93"),
			expectedPenalty: decimal.RequireFromString("31.62"),
			expectedOverdue: true,
		},
		{
			name:            "late is penalized the same as unpaid",
			status:          domain.InstallmentStatusLate,
			asOf:            dayAfter,
			expectedDue:     decimal.RequireFromString("663.93"),
			expectedPenalty: decimal.RequireFromString("31.62"),
			expectedOverdue: true,
		},
		{
			name:            "multiple missed weeks do not compound",
			status:          domain.InstallmentStatusLate,
			asOf:            weeksAfter,
			expectedDue:     decimal.RequireFromString("663.93"),
			expectedPenalty: decimal.RequireFromString("31.62"),
			expectedOverdue: true,
		},
		{
			name:            "paid installments accrue nothing",
			status:          domain.InstallmentStatusPaid,
			asOf:            weeksAfter,
			expectedDue:     decimal.RequireFromString("632.31"),
			expectedPenalty: decimal.Zero,
			expectedOverdue: false,
		},
		{
			name:            "waived installments accrue nothing",
			status:          domain.InstallmentStatusWaived,
			asOf:            weeksAfter,
			expectedDue:     decimal.RequireFromString("632.31"),
			expectedPenalty: decimal.Zero,
			expectedOverdue: false,
		},
	}

	policy := Default()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := testInstallment(tt.status)
			got := policy.Assess(inst, tt.asOf)

			assert.Equal(t, tt.expectedOverdue, got.IsOverdue)
			assert.True(t, got.AmountDue.Equal(tt.expectedDue),
				"amount due: expected %s, got %s", tt.expectedDue, got.AmountDue)
			assert.True(t, got.PenaltyAmount.Equal(tt.expectedPenalty),
				"penalty: expected %s, got %s", tt.expectedPenalty, got.PenaltyAmount)
		})
	}
}

func TestAssessIdempotent(t *testing.T) {
	policy := Default()
	inst := testInstallment(domain.InstallmentStatusUnpaid)
	asOf := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)

	first := policy.Assess(inst, asOf)
	second := policy.Assess(inst, asOf)

	assert.Equal(t, first, second)
}

func TestAssessDoesNotMutateInstallment(t *testing.T) {
	policy := Default()
	inst := testInstallment(domain.InstallmentStatusUnpaid)
	original := inst

	policy.Assess(inst, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, original, inst)
}

func TestAssessCustomRate(t *testing.T) {
	policy := Policy{Rate: decimal.RequireFromString("0.10")}
	inst := testInstallment(domain.InstallmentStatusUnpaid)

	got := policy.Assess(inst, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC))

	assert.True(t, got.PenaltyAmount.Equal(decimal.RequireFromString("63.23")),
		"penalty: got %s", got.PenaltyAmount)
	assert.True(t, got.AmountDue.Equal(decimal.RequireFromString("695.54")),
		"amount due: got %s", got.AmountDue)
}
