package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kapatiran/lending-engine/internal/domain"
)

// ErrStaleStatus is returned when a guarded write finds the row no longer
// in the status the caller observed. The transaction is rolled back whole.
var ErrStaleStatus = errors.New("status changed since it was read")

// ApplicationRepository defines the interface for loan application data operations
type ApplicationRepository interface {
	// Create persists a pending application together with its co-maker links
	Create(ctx context.Context, app *domain.LoanApplication) error

	// GetByID retrieves an application and its co-maker links
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error)

	// GetProduct retrieves a catalog product
	GetProduct(ctx context.Context, productID string) (*domain.LoanProduct, error)

	// GetCoMakerCandidates retrieves the center's member roster minus the
	// borrower, ordered by member id
	GetCoMakerCandidates(ctx context.Context, centerID, excludeMemberID string) ([]string, error)

	// UpdateStatusCAS flips the status only if the current status matches
	// the expected one. Returns false when another writer got there first.
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to string, at time.Time) (bool, error)

	// ApproveWithSchedule flips pending to approved and persists the
	// installment set in one transaction
	ApproveWithSchedule(ctx context.Context, id uuid.UUID, installments []*domain.Installment, at time.Time) error

	// CancelCascade removes co-maker links, document checks and the
	// application row in one transaction, guarded on pending status
	CancelCascade(ctx context.Context, id uuid.UUID) error
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	// GetByLoanID retrieves the full schedule of a loan ordered by week
	GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error)

	// GetLiveByCenter retrieves every installment of the center's active
	// loans, keyed by borrower
	GetLiveByCenter(ctx context.Context, centerID string) (map[string][]domain.Installment, error)

	// MarkOverdue flips unpaid installments past their due date to late
	// and returns how many rows changed
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// CollectionRepository applies a reconciled batch
type CollectionRepository interface {
	// ApplyResult applies every mutation, ledger credit, penalty waiver
	// and loan settlement of a reconciliation result in one transaction
	ApplyResult(ctx context.Context, result *domain.ReconciliationResult) error
}
