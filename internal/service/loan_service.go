package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kapatiran/lending-engine/internal/amortization"
	"github.com/kapatiran/lending-engine/internal/config"
	"github.com/kapatiran/lending-engine/internal/domain"
	"github.com/kapatiran/lending-engine/internal/guarantee"
	"github.com/kapatiran/lending-engine/internal/repository"
	customError "github.com/kapatiran/lending-engine/pkg/errors"
)

// LoanService drives a loan application through its lifecycle. Every
// transition goes through the status machine in the domain package and is
// applied with a compare-and-swap on the persisted status, so two
// concurrent calls on the same application cannot both win.
type LoanService struct {
	AppRepo         repository.ApplicationRepository
	InstallmentRepo repository.InstallmentRepository
	config          *config.Config
}

func NewLoanService(
	appRepo repository.ApplicationRepository,
	installmentRepo repository.InstallmentRepository,
	config *config.Config,
) *LoanService {
	return &LoanService{
		AppRepo:         appRepo,
		InstallmentRepo: installmentRepo,
		config:          config,
	}
}

// SubmitApplication validates a new application and persists it as pending
// with its co-maker links. No installments exist until approval.
func (s *LoanService) SubmitApplication(ctx context.Context, request *domain.SubmitApplicationRequest) (*domain.LoanApplication, error) {
	set, err := guarantee.Validate(request.BorrowerID, request.CoMakerIDs)
	if err != nil {
		return nil, err
	}

	rate, err := s.resolveRate(ctx, request)
	if err != nil {
		return nil, err
	}

	if err := amortization.ValidateParameters(request.Principal, rate, request.TermWeeks); err != nil {
		return nil, err
	}

	now := time.Now()

	// The schedule itself is discarded here; only the derived weekly
	// payment is stored for display. Installments materialize on approval.
	schedule, err := amortization.ComputeSchedule(request.Principal, rate, request.TermWeeks, now)
	if err != nil {
		return nil, err
	}

	app := &domain.LoanApplication{
		ID:               uuid.New(),
		BorrowerID:       request.BorrowerID,
		CenterID:         request.CenterID,
		ProductID:        request.ProductID,
		Principal:        request.Principal,
		TermWeeks:        request.TermWeeks,
		WeeklyRate:       rate,
		WeeklyPayment:    schedule.WeeklyPayment,
		Status:           domain.StatusPending,
		CoMakerIDs:       set.MemberIDs,
		SubmittedAt:      now,
		LastTransitionAt: now,
	}

	if err := s.AppRepo.Create(ctx, app); err != nil {
		return nil, customError.WrapPersistence(err)
	}

	return app, nil
}

// Approve materializes the amortization schedule and flips the application
// to approved in one transaction. The schedule is immutable from here on.
func (s *LoanService) Approve(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, []*domain.Installment, error) {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if _, err := domain.NextStatus(app.Status, domain.ActionApprove); err != nil {
		return nil, nil, err
	}

	schedule, err := amortization.ComputeSchedule(app.Principal, app.WeeklyRate, app.TermWeeks, app.SubmittedAt)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	installments := make([]*domain.Installment, 0, len(schedule.Lines))
	for _, line := range schedule.Lines {
		installments = append(installments, &domain.Installment{
			ID:         uuid.New(),
			LoanID:     app.ID,
			BorrowerID: app.BorrowerID,
			WeekNumber: line.WeekNumber,
			AmountDue:  line.AmountDue,
			DueDate:    line.DueDate,
			Status:     domain.InstallmentStatusUnpaid,
			CreatedAt:  now,
		})
	}

	if err := s.AppRepo.ApproveWithSchedule(ctx, app.ID, installments, now); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, nil, concurrentTransition(domain.ActionApprove)
		}
		return nil, nil, customError.WrapPersistence(err)
	}

	app.Status = domain.StatusApproved
	app.LastTransitionAt = now

	return app, installments, nil
}

// Activate acknowledges disbursement. Installments become live collection
// targets from this point.
func (s *LoanService) Activate(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	return s.transition(ctx, id, domain.ActionActivate)
}

// Reject declines a pending application.
func (s *LoanService) Reject(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	return s.transition(ctx, id, domain.ActionReject)
}

// Settle closes an active loan once its last installment has cleared. It is
// invoked by reconciliation, never directly by a user.
func (s *LoanService) Settle(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	return s.transition(ctx, id, domain.ActionSettle)
}

// Cancel withdraws a pending application. Co-maker links and document
// checks are removed together with the application in one transaction; if
// any step fails the application stays pending with every child intact.
func (s *LoanService) Cancel(ctx context.Context, id uuid.UUID) error {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return err
	}

	if _, err := domain.NextStatus(app.Status, domain.ActionCancel); err != nil {
		return err
	}

	if err := s.AppRepo.CancelCascade(ctx, app.ID); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return concurrentTransition(domain.ActionCancel)
		}
		return customError.WrapPersistence(err)
	}

	return nil
}

// CoMakerCandidates returns the member ids a borrower may pick co-makers
// from: everyone in the center except the borrower.
func (s *LoanService) CoMakerCandidates(ctx context.Context, centerID, borrowerID string) ([]string, error) {
	candidates, err := s.AppRepo.GetCoMakerCandidates(ctx, centerID, borrowerID)
	if err != nil {
		return nil, customError.WrapPersistence(err)
	}

	return candidates, nil
}

// GetSchedule returns the persisted schedule of an application.
func (s *LoanService) GetSchedule(ctx context.Context, id uuid.UUID) ([]*domain.Installment, error) {
	if _, err := s.getApplication(ctx, id); err != nil {
		return nil, err
	}

	installments, err := s.InstallmentRepo.GetByLoanID(ctx, id)
	if err != nil {
		return nil, customError.WrapPersistence(err)
	}

	return installments, nil
}

func (s *LoanService) transition(ctx context.Context, id uuid.UUID, action string) (*domain.LoanApplication, error) {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	to, err := domain.NextStatus(app.Status, action)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	swapped, err := s.AppRepo.UpdateStatusCAS(ctx, app.ID, app.Status, to, now)
	if err != nil {
		return nil, customError.WrapPersistence(err)
	}
	if !swapped {
		return nil, concurrentTransition(action)
	}

	app.Status = to
	app.LastTransitionAt = now

	return app, nil
}

func (s *LoanService) getApplication(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	app, err := s.AppRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapApplicationNotFound(id.String())
		}
		return nil, customError.WrapPersistence(err)
	}
	return app, nil
}

// resolveRate picks the weekly rate for an application: an explicit ad hoc
// override wins, then the product rate (with the term checked against the
// product cap), then the configured default.
func (s *LoanService) resolveRate(ctx context.Context, request *domain.SubmitApplicationRequest) (decimal.Decimal, error) {
	if request.WeeklyRate != nil {
		return *request.WeeklyRate, nil
	}

	if request.ProductID != nil {
		product, err := s.AppRepo.GetProduct(ctx, *request.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return decimal.Zero, customError.WrapValidation("unknown loan product " + *request.ProductID)
			}
			return decimal.Zero, customError.WrapPersistence(err)
		}
		if request.TermWeeks > product.MaxTermWeeks {
			return decimal.Zero, customError.WrapInvalidLoanParameters(
				fmt.Sprintf("term of %d weeks exceeds the product maximum of %d", request.TermWeeks, product.MaxTermWeeks))
		}
		return product.InterestRateWeekly, nil
	}

	return s.config.GetDefaultWeeklyRate(), nil
}

func concurrentTransition(action string) error {
	return customError.NewBusinessError(
		customError.ErrCodeInvalidTransition,
		"application status changed concurrently during "+action,
		customError.ErrInvalidTransition,
	)
}
