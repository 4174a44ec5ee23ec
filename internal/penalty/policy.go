package penalty

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kapatiran/lending-engine/internal/domain"
	"github.com/kapatiran/lending-engine/pkg/utils"
)

// DefaultRate is the flat surcharge applied to an overdue installment.
var DefaultRate = decimal.NewFromFloat(0.05)

// Policy computes the adjusted amount due on an installment. It is a flat,
// non-compounding surcharge: one missed week or five, the penalty is the
// same fraction of the original scheduled amount, re-derived on every call
// rather than accrued anywhere.
type Policy struct {
	Rate decimal.Decimal
}

// Default returns the policy at the standard 5% rate.
func Default() Policy {
	return Policy{Rate: DefaultRate}
}

// Assessment is the outcome of evaluating one installment on a date.
type Assessment struct {
	AmountDue     decimal.Decimal `json:"amount_due"`
	PenaltyAmount decimal.Decimal `json:"penalty_amount"`
	IsOverdue     bool            `json:"is_overdue"`
}

// Assess returns what the installment costs to settle as of the given date.
// An installment is overdue once the date has passed its due date while it
// is still outstanding; `late` is only the persisted overdue flag written by
// the scheduler, so it penalizes the same as `unpaid`. Assess never mutates
// the installment and is idempotent for a fixed (installment, date) pair.
func (p Policy) Assess(inst domain.Installment, asOf time.Time) Assessment {
	overdue := asOf.After(inst.DueDate) && inst.Outstanding()
	if !overdue {
		return Assessment{
			AmountDue:     inst.AmountDue,
			PenaltyAmount: decimal.Zero,
			IsOverdue:     false,
		}
	}

	penaltyAmount := utils.RoundMinorUnit(inst.AmountDue.Mul(p.Rate))

	return Assessment{
		AmountDue:     inst.AmountDue.Add(penaltyAmount),
		PenaltyAmount: penaltyAmount,
		IsOverdue:     true,
	}
}
