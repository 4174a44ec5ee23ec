package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kapatiran/lending-engine/internal/domain"
)

type collectionRepository struct {
	db *sqlx.DB
}

func NewCollectionRepository(db *sqlx.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// ApplyResult writes a whole reconciliation result or none of it. Every
// installment flip is guarded on the status the reconciler computed from;
// a stale row aborts the transaction so a concurrently applied batch can
// never half-land.
func (r *collectionRepository) ApplyResult(ctx context.Context, result *domain.ReconciliationResult) error {
	mutationQuery := `
		UPDATE installments
		SET status = $4
		WHERE loan_id = $1 AND week_number = $2 AND status = $3
	`
	creditQuery := `
		INSERT INTO ledger_entries (id, center_id, member_id, entry_type, amount, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	waiverQuery := `
		INSERT INTO penalty_waivers (id, loan_id, member_id, week_number, amount, waived_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	settleQuery := `
		UPDATE loan_applications
		SET status = $2, last_transition_at = $3
		WHERE id = $1 AND status = $4
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	for _, m := range result.Mutations {
		res, err := tx.ExecContext(ctx, mutationQuery, m.LoanID, m.WeekNumber, m.FromStatus, m.ToStatus)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows != 1 {
			return ErrStaleStatus
		}
	}

	for _, c := range result.Credits {
		_, err = tx.ExecContext(ctx, creditQuery,
			uuid.New(),
			c.CenterID,
			c.MemberID,
			c.EntryType,
			c.Amount,
			c.EntryDate,
			now,
		)
		if err != nil {
			return err
		}
	}

	for _, w := range result.Waivers {
		_, err = tx.ExecContext(ctx, waiverQuery,
			uuid.New(),
			w.LoanID,
			w.MemberID,
			w.WeekNumber,
			w.Amount,
			w.WaivedAt,
		)
		if err != nil {
			return err
		}
	}

	for _, loanID := range result.SettledLoanIDs {
		res, err := tx.ExecContext(ctx, settleQuery, loanID, domain.StatusFullyPaid, now, domain.StatusActive)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows != 1 {
			return ErrStaleStatus
		}
	}

	return tx.Commit()
}
