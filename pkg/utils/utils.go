package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyDueDate returns the due date for a given week of a schedule.
// Week 1 falls 7 days after the start date, week 2 after 14, and so on.
func WeeklyDueDate(startDate time.Time, weekNumber int) time.Time {
	return startDate.AddDate(0, 0, 7*weekNumber)
}

// RoundMinorUnit rounds an amount to currency minor-unit precision,
// half away from zero.
func RoundMinorUnit(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
