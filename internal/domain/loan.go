package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	customError "github.com/kapatiran/lending-engine/pkg/errors"
)

// Application statuses
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusActive    = "active"
	StatusRejected  = "rejected"
	StatusFullyPaid = "fully_paid"
	StatusCancelled = "cancelled"
)

// Lifecycle actions
const (
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionActivate = "activate"
	ActionCancel   = "cancel"
	ActionSettle   = "settle"
)

// transitions is the full status machine. Anything not listed here is
// illegal: pending fans out to approved/rejected/cancelled, approved moves
// to active on disbursement, and active closes to fully_paid when the last
// installment settles. rejected, cancelled and fully_paid are terminal.
var transitions = map[string]map[string]string{
	StatusPending: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
		ActionCancel:  StatusCancelled,
	},
	StatusApproved: {
		ActionActivate: StatusActive,
	},
	StatusActive: {
		ActionSettle: StatusFullyPaid,
	},
}

// NextStatus resolves the status an action leads to from the given status.
// It returns an INVALID_TRANSITION error naming the (from, action) pair for
// every edge outside the machine. It never mutates anything.
func NextStatus(from, action string) (string, error) {
	if edges, ok := transitions[from]; ok {
		if to, ok := edges[action]; ok {
			return to, nil
		}
	}
	return "", customError.WrapInvalidTransition(from, action)
}

// LoanProduct is an immutable catalog entry. The core only reads it.
type LoanProduct struct {
	ID                 string          `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	InterestRateWeekly decimal.Decimal `json:"interest_rate_weekly" db:"interest_rate_weekly"`
	MaxTermWeeks       int             `json:"max_term_weeks" db:"max_term_weeks"`
}

// LoanApplication is the aggregate root of the lending core.
type LoanApplication struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	BorrowerID       string          `json:"borrower_id" db:"borrower_id"`
	CenterID         string          `json:"center_id" db:"center_id"`
	ProductID        *string         `json:"product_id,omitempty" db:"product_id"`
	Principal        decimal.Decimal `json:"principal" db:"principal"`
	TermWeeks        int             `json:"term_weeks" db:"term_weeks"`
	WeeklyRate       decimal.Decimal `json:"weekly_rate" db:"weekly_rate"`
	WeeklyPayment    decimal.Decimal `json:"weekly_payment" db:"weekly_payment"`
	Status           string          `json:"status" db:"status"`
	CoMakerIDs       []string        `json:"co_maker_ids" db:"-"`
	SubmittedAt      time.Time       `json:"submitted_at" db:"submitted_at"`
	LastTransitionAt time.Time       `json:"last_transition_at" db:"last_transition_at"`
}

// DTOs for requests and responses

type SubmitApplicationRequest struct {
	BorrowerID string          `json:"borrower_id" validate:"required"`
	CenterID   string          `json:"center_id" validate:"required"`
	ProductID  *string         `json:"product_id,omitempty"`
	Principal  decimal.Decimal `json:"principal" validate:"required"`
	TermWeeks  int             `json:"term_weeks" validate:"required,gt=0"`
	// WeeklyRate overrides the product rate for ad hoc loans.
	WeeklyRate *decimal.Decimal `json:"weekly_rate,omitempty"`
	CoMakerIDs []string         `json:"co_maker_ids" validate:"required"`
}

type ApplicationResponse struct {
	Application  *LoanApplication `json:"application"`
	Installments []*Installment   `json:"installments,omitempty"`
}

type CoMakerCandidatesResponse struct {
	CenterID  string   `json:"center_id"`
	MemberIDs []string `json:"member_ids"`
}
