package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment statuses
const (
	InstallmentStatusUnpaid = "unpaid"
	InstallmentStatusPaid   = "paid"
	InstallmentStatusLate   = "late"
	InstallmentStatusWaived = "waived"
)

// Installment is one week of an approved amortization schedule. AmountDue
// is the original scheduled amount and is never mutated after approval;
// penalties are assessed on the fly, not folded into it.
type Installment struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	LoanID     uuid.UUID       `json:"loan_id" db:"loan_id"`
	BorrowerID string          `json:"borrower_id" db:"borrower_id"`
	WeekNumber int             `json:"week_number" db:"week_number"`
	AmountDue  decimal.Decimal `json:"amount_due" db:"amount_due"`
	DueDate    time.Time       `json:"due_date" db:"due_date"`
	Status     string          `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Outstanding reports whether the installment still has to be collected.
func (i Installment) Outstanding() bool {
	return i.Status == InstallmentStatusUnpaid || i.Status == InstallmentStatusLate
}

// Settled reports whether the installment no longer has to be collected.
func (i Installment) Settled() bool {
	return i.Status == InstallmentStatusPaid || i.Status == InstallmentStatusWaived
}

type ScheduleResponse struct {
	LoanID       uuid.UUID      `json:"loan_id"`
	Installments []*Installment `json:"installments"`
}
