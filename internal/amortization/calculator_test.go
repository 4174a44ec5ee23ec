package amortization

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customError "github.com/kapatiran/lending-engine/pkg/errors"
)

var testStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func TestComputeSchedule(t *testing.T) {
	tests := []struct {
		name            string
		principal       decimal.Decimal
		weeklyRate      decimal.Decimal
		termWeeks       int
		expectedTotal   decimal.Decimal
		expectedWeekly  decimal.Decimal
		expectedLast    decimal.Decimal
		expectedIntrest decimal.Decimal
	}{
		{
			name:            "standard group loan",
			principal:       decimal.NewFromInt(30000),
			weeklyRate:      decimal.RequireFromString("0.096").Div(decimal.NewFromInt(52)),
			termWeeks:       52,
			expectedIntrest: decimal.NewFromInt(2880),
			expectedTotal:   decimal.NewFromInt(32880),
			expectedWeekly:  decimal.RequireFromString("632.31"),
			expectedLast:    decimal.RequireFromString("632.19"),
		},
		{
			name:            "even division leaves no residual",
			principal:       decimal.NewFromInt(10000),
			weeklyRate:      decimal.RequireFromString("0.005"),
			termWeeks:       10,
			expectedIntrest: decimal.NewFromInt(500),
			expectedTotal:   decimal.NewFromInt(10500),
			expectedWeekly:  decimal.NewFromInt(1050),
			expectedLast:    decimal.NewFromInt(1050),
		},
		{
			name:            "zero rate",
			principal:       decimal.NewFromInt(9000),
			weeklyRate:      decimal.Zero,
			termWeeks:       4,
			expectedIntrest: decimal.Zero,
			expectedTotal:   decimal.NewFromInt(9000),
			expectedWeekly:  decimal.NewFromInt(2250),
			expectedLast:    decimal.NewFromInt(2250),
		},
		{
			name:            "single week absorbs everything",
			principal:       decimal.RequireFromString("1000.01"),
			weeklyRate:      decimal.RequireFromString("0.01"),
			termWeeks:       1,
			expectedIntrest: decimal.RequireFromString("10.00"),
			expectedTotal:   decimal.RequireFromString("1010.01"),
			expectedWeekly:  decimal.RequireFromString("1010.01"),
			expectedLast:    decimal.RequireFromString("1010.01"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := ComputeSchedule(tt.principal, tt.weeklyRate, tt.termWeeks, testStart)
			require.NoError(t, err)

			assert.True(t, schedule.TotalInterest.Equal(tt.expectedIntrest),
				"interest: expected %s, got %s", tt.expectedIntrest, schedule.TotalInterest)
			assert.True(t, schedule.TotalAmount.Equal(tt.expectedTotal),
				"total: expected %s, got %s", tt.expectedTotal, schedule.TotalAmount)
			assert.True(t, schedule.WeeklyPayment.Equal(tt.expectedWeekly),
				"weekly: expected %s, got %s", tt.expectedWeekly, schedule.WeeklyPayment)
			require.Len(t, schedule.Lines, tt.termWeeks)
			assert.True(t, schedule.Lines[tt.termWeeks-1].AmountDue.Equal(tt.expectedLast),
				"last line: expected %s, got %s", tt.expectedLast, schedule.Lines[tt.termWeeks-1].AmountDue)

			// The lines must sum to the total exactly, with the residual
			// concentrated in the last line.
			sum := decimal.Zero
			for i, line := range schedule.Lines {
				assert.Equal(t, i+1, line.WeekNumber)
				if i < tt.termWeeks-1 {
					assert.True(t, line.AmountDue.Equal(schedule.WeeklyPayment))
				}
				sum = sum.Add(line.AmountDue)
			}
			assert.True(t, sum.Equal(schedule.TotalAmount),
				"sum of lines %s != total %s", sum, schedule.TotalAmount)
		})
	}
}

func TestComputeScheduleDueDates(t *testing.T) {
	schedule, err := ComputeSchedule(decimal.NewFromInt(5000), decimal.RequireFromString("0.005"), 4, testStart)
	require.NoError(t, err)

	for i, line := range schedule.Lines {
		expected := testStart.AddDate(0, 0, 7*(i+1))
		assert.True(t, line.DueDate.Equal(expected), "week %d: expected %s, got %s", i+1, expected, line.DueDate)
	}
}

func TestComputeScheduleWithDueDater(t *testing.T) {
	// Center meets on Wednesdays regardless of submission day.
	meetingDay := func(week int) time.Time {
		return time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*(week-1))
	}

	schedule, err := ComputeSchedule(decimal.NewFromInt(5000), decimal.RequireFromString("0.005"), 3, testStart, WithDueDater(meetingDay))
	require.NoError(t, err)

	for i, line := range schedule.Lines {
		assert.Equal(t, time.Wednesday, line.DueDate.Weekday(), "week %d", i+1)
	}
}

func TestComputeScheduleTinyTotal(t *testing.T) {
	// When the rounded weekly share overshoots the total, the weekly
	// payment drops to the rounded-down share so the residual line never
	// goes negative.
	tests := []struct {
		name           string
		principal      decimal.Decimal
		termWeeks      int
		expectedWeekly decimal.Decimal
		expectedLast   decimal.Decimal
	}{
		{"two centavos over four weeks", decimal.RequireFromString("0.02"), 4, decimal.RequireFromString("0.00"), decimal.RequireFromString("0.02")},
		{"three centavos over five weeks", decimal.RequireFromString("0.03"), 5, decimal.RequireFromString("0.00"), decimal.RequireFromString("0.03")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := ComputeSchedule(tt.principal, decimal.Zero, tt.termWeeks, testStart)
			require.NoError(t, err)

			assert.True(t, schedule.WeeklyPayment.Equal(tt.expectedWeekly),
				"weekly: expected %s, got %s", tt.expectedWeekly, schedule.WeeklyPayment)

			sum := decimal.Zero
			for i, line := range schedule.Lines {
				assert.False(t, line.AmountDue.IsNegative(), "week %d is negative: %s", i+1, line.AmountDue)
				if i < tt.termWeeks-1 {
					assert.True(t, line.AmountDue.Equal(schedule.WeeklyPayment))
				}
				sum = sum.Add(line.AmountDue)
			}

			last := schedule.Lines[tt.termWeeks-1].AmountDue
			assert.True(t, last.Equal(tt.expectedLast), "last line: expected %s, got %s", tt.expectedLast, last)
			assert.True(t, sum.Equal(schedule.TotalAmount), "sum of lines %s != total %s", sum, schedule.TotalAmount)
		})
	}
}

func TestComputeScheduleDeterminism(t *testing.T) {
	principal := decimal.RequireFromString("48750.25")
	rate := decimal.RequireFromString("0.0046")

	first, err := ComputeSchedule(principal, rate, 25, testStart)
	require.NoError(t, err)
	second, err := ComputeSchedule(principal, rate, 25, testStart)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeScheduleInvalidParameters(t *testing.T) {
	tests := []struct {
		name       string
		principal  decimal.Decimal
		weeklyRate decimal.Decimal
		termWeeks  int
	}{
		{"zero principal", decimal.Zero, decimal.RequireFromString("0.005"), 10},
		{"negative principal", decimal.NewFromInt(-100), decimal.RequireFromString("0.005"), 10},
		{"negative rate", decimal.NewFromInt(1000), decimal.RequireFromString("-0.01"), 10},
		{"rate of one", decimal.NewFromInt(1000), decimal.NewFromInt(1), 10},
		{"zero term", decimal.NewFromInt(1000), decimal.RequireFromString("0.005"), 0},
		{"negative term", decimal.NewFromInt(1000), decimal.RequireFromString("0.005"), -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := ComputeSchedule(tt.principal, tt.weeklyRate, tt.termWeeks, testStart)
			assert.Nil(t, schedule)
			require.Error(t, err)

			var bizErr *customError.BusinessError
			require.ErrorAs(t, err, &bizErr)
			assert.Equal(t, customError.ErrCodeInvalidLoanParameters, bizErr.Code)
			assert.ErrorIs(t, err, customError.ErrInvalidLoanParameters)
		})
	}
}
