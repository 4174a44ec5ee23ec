package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kapatiran/lending-engine/internal/domain"
)

type installmentRepository struct {
	db *sqlx.DB
}

func NewInstallmentRepository(db *sqlx.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	query := `
		SELECT id, loan_id, borrower_id, week_number, amount_due, due_date, status, created_at
		FROM installments
		WHERE loan_id = $1
		ORDER BY week_number
	`

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, loanID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) GetLiveByCenter(ctx context.Context, centerID string) (map[string][]domain.Installment, error) {
	// Full schedules, not just outstanding rows: the reconciler needs the
	// settled siblings to detect when a payment clears a loan's last week.
	query := `
		SELECT i.id, i.loan_id, i.borrower_id, i.week_number, i.amount_due, i.due_date, i.status, i.created_at
		FROM installments i
		JOIN loan_applications a ON a.id = i.loan_id
		WHERE a.center_id = $1 AND a.status = $2
		ORDER BY i.borrower_id, i.week_number
	`

	var installments []domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, centerID, domain.StatusActive); err != nil {
		return nil, err
	}

	live := make(map[string][]domain.Installment)
	for _, inst := range installments {
		live[inst.BorrowerID] = append(live[inst.BorrowerID], inst)
	}

	return live, nil
}

func (r *installmentRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE installments
		SET status = $1
		WHERE status = $2 AND due_date < $3
	`

	res, err := r.db.ExecContext(ctx, query, domain.InstallmentStatusLate, domain.InstallmentStatusUnpaid, asOf)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
