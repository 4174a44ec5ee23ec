package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kapatiran/lending-engine/internal/domain"
)

type applicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	appQuery := `
		INSERT INTO loan_applications (id, borrower_id, center_id, product_id, principal, term_weeks, weekly_rate, weekly_payment, status, submitted_at, last_transition_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	coMakerQuery := `
		INSERT INTO co_makers (application_id, member_id)
		VALUES ($1, $2)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, appQuery,
		app.ID,
		app.BorrowerID,
		app.CenterID,
		app.ProductID,
		app.Principal,
		app.TermWeeks,
		app.WeeklyRate,
		app.WeeklyPayment,
		app.Status,
		app.SubmittedAt,
		app.LastTransitionAt,
	)
	if err != nil {
		return err
	}

	for _, memberID := range app.CoMakerIDs {
		if _, err = tx.ExecContext(ctx, coMakerQuery, app.ID, memberID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	appQuery := `
		SELECT id, borrower_id, center_id, product_id, principal, term_weeks, weekly_rate, weekly_payment, status, submitted_at, last_transition_at
		FROM loan_applications
		WHERE id = $1
	`
	coMakerQuery := `
		SELECT member_id
		FROM co_makers
		WHERE application_id = $1
		ORDER BY member_id
	`

	var app domain.LoanApplication
	if err := r.db.GetContext(ctx, &app, appQuery, id); err != nil {
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &app.CoMakerIDs, coMakerQuery, id); err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) GetProduct(ctx context.Context, productID string) (*domain.LoanProduct, error) {
	query := `
		SELECT id, name, interest_rate_weekly, max_term_weeks
		FROM loan_products
		WHERE id = $1
	`

	var product domain.LoanProduct
	if err := r.db.GetContext(ctx, &product, query, productID); err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *applicationRepository) GetCoMakerCandidates(ctx context.Context, centerID, excludeMemberID string) ([]string, error) {
	query := `
		SELECT member_id
		FROM center_members
		WHERE center_id = $1 AND member_id <> $2
		ORDER BY member_id
	`

	candidates := []string{}
	if err := r.db.SelectContext(ctx, &candidates, query, centerID, excludeMemberID); err != nil {
		return nil, err
	}

	return candidates, nil
}

func (r *applicationRepository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error) {
	query := `
		UPDATE loan_applications
		SET status = $3, last_transition_at = $4
		WHERE id = $1 AND status = $2
	`

	res, err := r.db.ExecContext(ctx, query, id, from, to, at)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *applicationRepository) ApproveWithSchedule(ctx context.Context, id uuid.UUID, installments []*domain.Installment, at time.Time) error {
	statusQuery := `
		UPDATE loan_applications
		SET status = $2, last_transition_at = $3
		WHERE id = $1 AND status = $4
	`
	installmentQuery := `
		INSERT INTO installments (id, loan_id, borrower_id, week_number, amount_due, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, statusQuery, id, domain.StatusApproved, at, domain.StatusPending)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		// Lost the race: someone already moved this application on.
		return ErrStaleStatus
	}

	for _, inst := range installments {
		_, err = tx.ExecContext(ctx, installmentQuery,
			inst.ID,
			inst.LoanID,
			inst.BorrowerID,
			inst.WeekNumber,
			inst.AmountDue,
			inst.DueDate,
			inst.Status,
			inst.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *applicationRepository) CancelCascade(ctx context.Context, id uuid.UUID) error {
	coMakerQuery := `DELETE FROM co_makers WHERE application_id = $1`
	docQuery := `DELETE FROM document_checks WHERE application_id = $1`
	appQuery := `DELETE FROM loan_applications WHERE id = $1 AND status = $2`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, coMakerQuery, id); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, docQuery, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, appQuery, id, domain.StatusPending)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		// The application left pending between the guard check and here.
		// Rolling back restores the child rows untouched.
		return ErrStaleStatus
	}

	return tx.Commit()
}
