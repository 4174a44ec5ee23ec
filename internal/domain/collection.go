package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger entry types credited alongside loan collections.
const (
	LedgerEntryCBU       = "cbu"
	LedgerEntryInsurance = "insurance"
)

// CollectionEntry is one member's row on a collection sheet.
type CollectionEntry struct {
	MemberID         string          `json:"member_id" validate:"required"`
	LoanID           string          `json:"loan_id,omitempty"`
	IsPresent        bool            `json:"is_present"`
	LoanPayment      decimal.Decimal `json:"loan_payment"`
	SavingsPayment   decimal.Decimal `json:"savings_payment"`
	InsurancePayment decimal.Decimal `json:"insurance_payment"`
	WaivePenalty     bool            `json:"waive_penalty,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// CollectionBatch is a center's collection sheet for one meeting date. It is
// ephemeral: validated, reconciled, applied, then discarded. Its effects
// live on in mutated installments and ledger records.
type CollectionBatch struct {
	CenterID       string            `json:"center_id" validate:"required"`
	CollectionDate time.Time         `json:"collection_date" validate:"required"`
	Entries        []CollectionEntry `json:"entries" validate:"required,min=1,dive"`
}

// InstallmentMutation is one status flip the reconciler wants applied.
type InstallmentMutation struct {
	LoanID      uuid.UUID       `json:"loan_id"`
	WeekNumber  int             `json:"week_number"`
	FromStatus  string          `json:"from_status"`
	ToStatus    string          `json:"to_status"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PenaltyPaid decimal.Decimal `json:"penalty_paid"`
}

// LedgerCredit is a savings/CBU or insurance credit to post for a member.
type LedgerCredit struct {
	MemberID  string          `json:"member_id"`
	CenterID  string          `json:"center_id"`
	EntryType string          `json:"entry_type"`
	Amount    decimal.Decimal `json:"amount"`
	EntryDate time.Time       `json:"entry_date"`
}

// PenaltyWaiver records a penalty the field officer forgave on collection.
type PenaltyWaiver struct {
	LoanID     uuid.UUID       `json:"loan_id"`
	MemberID   string          `json:"member_id"`
	WeekNumber int             `json:"week_number"`
	Amount     decimal.Decimal `json:"amount"`
	WaivedAt   time.Time       `json:"waived_at"`
}

// PaymentVariance reports an expected-vs-actual gap for one member. A
// shortfall leaves the installment outstanding; an overpayment settles it
// and carries the excess here rather than rolling it forward.
type PaymentVariance struct {
	MemberID   string          `json:"member_id"`
	LoanID     uuid.UUID       `json:"loan_id"`
	WeekNumber int             `json:"week_number"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// CollectionSummary aggregates a reconciled batch for reporting.
type CollectionSummary struct {
	CenterID           string            `json:"center_id"`
	CollectionDate     time.Time         `json:"collection_date"`
	TotalLoanCollected decimal.Decimal   `json:"total_loan_collected"`
	TotalSavings       decimal.Decimal   `json:"total_savings"`
	TotalInsurance     decimal.Decimal   `json:"total_insurance"`
	PresentCount       int               `json:"present_count"`
	RosterCount        int               `json:"roster_count"`
	AttendanceRate     decimal.Decimal   `json:"attendance_rate"`
	Shortfalls         []PaymentVariance `json:"shortfalls"`
	Overpayments       []PaymentVariance `json:"overpayments"`
}

// ReconciliationResult is the atomic output of reconciling one batch. The
// caller applies Mutations, Credits and Waivers in a single transaction and
// settles every loan in SettledLoanIDs; the reconciler itself never writes.
type ReconciliationResult struct {
	Mutations      []InstallmentMutation `json:"mutations"`
	Credits        []LedgerCredit        `json:"credits"`
	Waivers        []PenaltyWaiver       `json:"waivers"`
	SettledLoanIDs []uuid.UUID           `json:"settled_loan_ids"`
	Summary        CollectionSummary     `json:"summary"`
}
