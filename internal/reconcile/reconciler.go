package reconcile

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kapatiran/lending-engine/internal/domain"
	"github.com/kapatiran/lending-engine/internal/penalty"
	customError "github.com/kapatiran/lending-engine/pkg/errors"
)

// Reconcile compares a center's collection sheet against a snapshot of its
// live installments and emits the full set of mutations needed to apply the
// collection atomically. It never writes anything itself.
//
// The batch is fail-closed: every entry is validated before any outcome is
// computed, so a single unresolvable entry yields an error and zero
// mutations, never a partially reconciled sheet.
//
// Payment matching is strict. Only the member's earliest outstanding
// installment is collectible in one run; an exact payment (after penalty
// assessment) settles it, a short payment leaves it outstanding and is
// reported as a shortfall, and an overpayment settles it with the excess
// reported as a variance rather than rolled into the next week.
func Reconcile(batch domain.CollectionBatch, live map[string][]domain.Installment, policy penalty.Policy) (*domain.ReconciliationResult, error) {
	targets, err := validate(batch, live)
	if err != nil {
		return nil, err
	}

	result := &domain.ReconciliationResult{
		Mutations:      []domain.InstallmentMutation{},
		Credits:        []domain.LedgerCredit{},
		Waivers:        []domain.PenaltyWaiver{},
		SettledLoanIDs: []uuid.UUID{},
		Summary: domain.CollectionSummary{
			CenterID:           batch.CenterID,
			CollectionDate:     batch.CollectionDate,
			TotalLoanCollected: decimal.Zero,
			TotalSavings:       decimal.Zero,
			TotalInsurance:     decimal.Zero,
			RosterCount:        len(batch.Entries),
			Shortfalls:         []domain.PaymentVariance{},
			Overpayments:       []domain.PaymentVariance{},
		},
	}

	for _, entry := range batch.Entries {
		if entry.IsPresent {
			result.Summary.PresentCount++
		}

		if entry.SavingsPayment.IsPositive() {
			result.Credits = append(result.Credits, domain.LedgerCredit{
				MemberID:  entry.MemberID,
				CenterID:  batch.CenterID,
				EntryType: domain.LedgerEntryCBU,
				Amount:    entry.SavingsPayment,
				EntryDate: batch.CollectionDate,
			})
			result.Summary.TotalSavings = result.Summary.TotalSavings.Add(entry.SavingsPayment)
		}

		if entry.InsurancePayment.IsPositive() {
			result.Credits = append(result.Credits, domain.LedgerCredit{
				MemberID:  entry.MemberID,
				CenterID:  batch.CenterID,
				EntryType: domain.LedgerEntryInsurance,
				Amount:    entry.InsurancePayment,
				EntryDate: batch.CollectionDate,
			})
			result.Summary.TotalInsurance = result.Summary.TotalInsurance.Add(entry.InsurancePayment)
		}

		if !entry.LoanPayment.IsPositive() {
			continue
		}

		target := targets[entry.MemberID]
		assessment := policy.Assess(target, batch.CollectionDate)

		owed := assessment.AmountDue
		if entry.WaivePenalty && assessment.IsOverdue {
			owed = target.AmountDue
			result.Waivers = append(result.Waivers, domain.PenaltyWaiver{
				LoanID:     target.LoanID,
				MemberID:   entry.MemberID,
				WeekNumber: target.WeekNumber,
				Amount:     assessment.PenaltyAmount,
				WaivedAt:   batch.CollectionDate,
			})
		}

		switch {
		case entry.LoanPayment.LessThan(owed):
			// Short payments never partially settle an installment. The
			// installment stays outstanding and the gap is surfaced.
			result.Summary.Shortfalls = append(result.Summary.Shortfalls, domain.PaymentVariance{
				MemberID:   entry.MemberID,
				LoanID:     target.LoanID,
				WeekNumber: target.WeekNumber,
				AmountDue:  owed,
				AmountPaid: entry.LoanPayment,
			})

		default:
			penaltyPaid := decimal.Zero
			if assessment.IsOverdue && !entry.WaivePenalty {
				penaltyPaid = assessment.PenaltyAmount
			}

			result.Mutations = append(result.Mutations, domain.InstallmentMutation{
				LoanID:      target.LoanID,
				WeekNumber:  target.WeekNumber,
				FromStatus:  target.Status,
				ToStatus:    domain.InstallmentStatusPaid,
				AmountPaid:  entry.LoanPayment,
				PenaltyPaid: penaltyPaid,
			})

			if entry.LoanPayment.GreaterThan(owed) {
				result.Summary.Overpayments = append(result.Summary.Overpayments, domain.PaymentVariance{
					MemberID:   entry.MemberID,
					LoanID:     target.LoanID,
					WeekNumber: target.WeekNumber,
					AmountDue:  owed,
					AmountPaid: entry.LoanPayment,
				})
			}

			if lastOutstanding(live[entry.MemberID], target) {
				result.SettledLoanIDs = append(result.SettledLoanIDs, target.LoanID)
			}
		}

		result.Summary.TotalLoanCollected = result.Summary.TotalLoanCollected.Add(entry.LoanPayment)
	}

	if result.Summary.RosterCount > 0 {
		result.Summary.AttendanceRate = decimal.NewFromInt(int64(result.Summary.PresentCount)).
			Div(decimal.NewFromInt(int64(result.Summary.RosterCount))).Round(4)
	} else {
		result.Summary.AttendanceRate = decimal.Zero
	}

	return result, nil
}

// validate checks the whole batch up front and resolves each paying
// member's collectible installment. Any malformed or unresolvable entry
// fails the batch before a single outcome is computed.
func validate(batch domain.CollectionBatch, live map[string][]domain.Installment) (map[string]domain.Installment, error) {
	if batch.CenterID == "" {
		return nil, customError.WrapReconciliation("batch has no center")
	}
	if len(batch.Entries) == 0 {
		return nil, customError.WrapReconciliation("batch has no entries")
	}

	targets := make(map[string]domain.Installment, len(batch.Entries))
	seen := make(map[string]struct{}, len(batch.Entries))

	for i, entry := range batch.Entries {
		if entry.MemberID == "" {
			return nil, customError.WrapReconciliation(fmt.Sprintf("entry %d has no member", i))
		}
		if _, dup := seen[entry.MemberID]; dup {
			return nil, customError.WrapReconciliation(fmt.Sprintf("member %s appears more than once", entry.MemberID))
		}
		seen[entry.MemberID] = struct{}{}

		if entry.LoanPayment.IsNegative() || entry.SavingsPayment.IsNegative() || entry.InsurancePayment.IsNegative() {
			return nil, customError.WrapReconciliation(fmt.Sprintf("member %s has a negative amount", entry.MemberID))
		}
		if entry.WaivePenalty && !entry.LoanPayment.IsPositive() {
			return nil, customError.WrapReconciliation(fmt.Sprintf("member %s waives a penalty without a payment", entry.MemberID))
		}

		if !entry.LoanPayment.IsPositive() {
			continue
		}

		target, ok := earliestOutstanding(live[entry.MemberID])
		if !ok {
			return nil, customError.WrapReconciliation(fmt.Sprintf("member %s has no collectible installment", entry.MemberID))
		}
		if entry.LoanID != "" && entry.LoanID != target.LoanID.String() {
			return nil, customError.WrapReconciliation(
				fmt.Sprintf("member %s paid against loan %s but loan %s must clear first", entry.MemberID, entry.LoanID, target.LoanID))
		}

		targets[entry.MemberID] = target
	}

	return targets, nil
}

// earliestOutstanding picks the one installment collectible for a member
// this run: the outstanding installment with the earliest due date,
// breaking ties on week number. Collecting out of order is not permitted.
func earliestOutstanding(installments []domain.Installment) (domain.Installment, bool) {
	outstanding := make([]domain.Installment, 0, len(installments))
	for _, inst := range installments {
		if inst.Outstanding() {
			outstanding = append(outstanding, inst)
		}
	}
	if len(outstanding) == 0 {
		return domain.Installment{}, false
	}

	sort.Slice(outstanding, func(a, b int) bool {
		if !outstanding[a].DueDate.Equal(outstanding[b].DueDate) {
			return outstanding[a].DueDate.Before(outstanding[b].DueDate)
		}
		return outstanding[a].WeekNumber < outstanding[b].WeekNumber
	})

	return outstanding[0], true
}

// lastOutstanding reports whether settling target leaves its loan with no
// outstanding installments, which is what flips the loan to fully paid.
func lastOutstanding(installments []domain.Installment, target domain.Installment) bool {
	for _, inst := range installments {
		if inst.LoanID != target.LoanID {
			continue
		}
		if inst.ID == target.ID {
			continue
		}
		if inst.Outstanding() {
			return false
		}
	}
	return true
}
