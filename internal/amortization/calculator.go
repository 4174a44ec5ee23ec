package amortization

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	customError "github.com/kapatiran/lending-engine/pkg/errors"
	"github.com/kapatiran/lending-engine/pkg/utils"
)

// Line is one scheduled weekly obligation.
type Line struct {
	WeekNumber int             `json:"week_number"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	DueDate    time.Time       `json:"due_date"`
}

// Schedule is the full amortization of a loan at flat-rate interest.
type Schedule struct {
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	WeeklyPayment decimal.Decimal `json:"weekly_payment"`
	Lines         []Line          `json:"lines"`
}

// Option adjusts schedule generation.
type Option func(*options)

type options struct {
	dueDater func(weekNumber int) time.Time
}

// WithDueDater supplies a center-specific meeting-day rule for due dates.
// Without it, week N falls N*7 days after the start date.
func WithDueDater(fn func(weekNumber int) time.Time) Option {
	return func(o *options) {
		o.dueDater = fn
	}
}

// ComputeSchedule translates a principal, flat weekly rate and term into a
// deterministic weekly schedule. Interest is flat, not declining-balance:
// totalInterest = principal * rate * term. The weekly payment is the total
// divided by the term rounded half-up to the currency minor unit, and the
// last line absorbs the rounding residual so the lines sum to the total
// exactly. Identical inputs always produce an identical schedule.
func ComputeSchedule(principal, weeklyRate decimal.Decimal, termWeeks int, startDate time.Time, opts ...Option) (*Schedule, error) {
	if err := ValidateParameters(principal, weeklyRate, termWeeks); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	totalInterest := utils.RoundMinorUnit(principal.Mul(weeklyRate).Mul(decimal.NewFromInt(int64(termWeeks))))
	totalAmount := utils.RoundMinorUnit(principal).Add(totalInterest)
	weeklyPayment := utils.RoundMinorUnit(totalAmount.Div(decimal.NewFromInt(int64(termWeeks))))

	// Every line carries the rounded weekly payment except the last, which
	// takes whatever is left so no rounding drift accumulates or leaks.
	lastPayment := totalAmount.Sub(weeklyPayment.Mul(decimal.NewFromInt(int64(termWeeks - 1))))

	// Rounding half-up can push the weekly payment above its exact share on
	// tiny totals, which would drive the residual below zero. Round down
	// instead; the last line then absorbs the shortfall and stays a real
	// obligation.
	if lastPayment.IsNegative() {
		weeklyPayment = totalAmount.Div(decimal.NewFromInt(int64(termWeeks))).RoundDown(2)
		lastPayment = totalAmount.Sub(weeklyPayment.Mul(decimal.NewFromInt(int64(termWeeks - 1))))
	}

	lines := make([]Line, 0, termWeeks)
	for week := 1; week <= termWeeks; week++ {
		amount := weeklyPayment
		if week == termWeeks {
			amount = lastPayment
		}

		dueDate := utils.WeeklyDueDate(startDate, week)
		if o.dueDater != nil {
			dueDate = o.dueDater(week)
		}

		lines = append(lines, Line{
			WeekNumber: week,
			AmountDue:  amount,
			DueDate:    dueDate,
		})
	}

	return &Schedule{
		TotalInterest: totalInterest,
		TotalAmount:   totalAmount,
		WeeklyPayment: weeklyPayment,
		Lines:         lines,
	}, nil
}

// ValidateParameters checks the calculator preconditions without producing
// a schedule. Submission uses it to reject bad applications before any
// installments exist.
func ValidateParameters(principal, weeklyRate decimal.Decimal, termWeeks int) error {
	if !principal.IsPositive() {
		return customError.WrapInvalidLoanParameters(fmt.Sprintf("principal must be positive, got %s", principal))
	}
	if weeklyRate.IsNegative() || weeklyRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return customError.WrapInvalidLoanParameters(fmt.Sprintf("weekly rate must be in [0,1), got %s", weeklyRate))
	}
	if termWeeks < 1 {
		return customError.WrapInvalidLoanParameters(fmt.Sprintf("term must be at least 1 week, got %d", termWeeks))
	}
	return nil
}
