package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/kapatiran/lending-engine/internal/amortization"
	"github.com/kapatiran/lending-engine/internal/domain"
	"github.com/kapatiran/lending-engine/internal/service"
	customError "github.com/kapatiran/lending-engine/pkg/errors"
	"github.com/kapatiran/lending-engine/pkg/response"
)

type LendingHandler struct {
	loans       *service.LoanService
	collections *service.CollectionService
	validator   *validator.Validate
}

func NewLendingHandler(loans *service.LoanService, collections *service.CollectionService) *LendingHandler {
	return &LendingHandler{
		loans:       loans,
		collections: collections,
		validator:   validator.New(),
	}
}

type PreviewScheduleRequest struct {
	Principal  decimal.Decimal `json:"principal" validate:"required"`
	WeeklyRate decimal.Decimal `json:"weekly_rate"`
	TermWeeks  int             `json:"term_weeks" validate:"required,gt=0"`
	StartDate  *time.Time      `json:"start_date,omitempty"`
}

// PreviewSchedule computes a schedule without persisting anything, so the
// UI can show a borrower the amortization before submission.
func (h *LendingHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req PreviewScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	startDate := time.Now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	schedule, err := amortization.ComputeSchedule(req.Principal, req.WeeklyRate, req.TermWeeks, startDate)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.Success(w, schedule)
}

// SubmitApplication accepts a new loan application.
func (h *LendingHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	app, err := h.loans.SubmitApplication(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.Created(w, domain.ApplicationResponse{Application: app})
}

// ApproveApplication approves a pending application and materializes its
// schedule.
func (h *LendingHandler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	app, installments, err := h.loans.Approve(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.Success(w, domain.ApplicationResponse{Application: app, Installments: installments})
}

// ActivateApplication acknowledges disbursement of an approved loan.
func (h *LendingHandler) ActivateApplication(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.loans.Activate)
}

// RejectApplication declines a pending application.
func (h *LendingHandler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.loans.Reject)
}

// CancelApplication withdraws a pending application and all its child
// records.
func (h *LendingHandler) CancelApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	if err := h.loans.Cancel(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	response.Success(w, nil)
}

// GetSchedule returns the persisted schedule of an application.
func (h *LendingHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	installments, err := h.loans.GetSchedule(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.Success(w, domain.ScheduleResponse{LoanID: id, Installments: installments})
}

// GetCoMakerCandidates lists the center members a borrower can name as
// co-makers. The borrower passes their own id in the exclude query
// parameter so they never appear in their own picker.
func (h *LendingHandler) GetCoMakerCandidates(w http.ResponseWriter, r *http.Request) {
	centerID := mux.Vars(r)["centerId"]
	excludeID := r.URL.Query().Get("exclude")

	candidates, err := h.loans.CoMakerCandidates(r.Context(), centerID, excludeID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.Success(w, domain.CoMakerCandidatesResponse{CenterID: centerID, MemberIDs: candidates})
}

// SubmitCollection reconciles and applies a center's collection sheet.
func (h *LendingHandler) SubmitCollection(w http.ResponseWriter, r *http.Request) {
	var batch domain.CollectionBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	batch.CenterID = mux.Vars(r)["centerId"]

	if err := h.validator.Struct(&batch); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	result, err := h.collections.ReconcileCollection(r.Context(), batch)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *LendingHandler) simpleTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error)) {
	id, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	app, err := fn(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	response.Success(w, domain.ApplicationResponse{Application: app})
}

func (h *LendingHandler) applicationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "invalid application id", err)
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps business error codes onto HTTP statuses.
func (h *LendingHandler) respondError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "unexpected error", err)
		return
	}

	status := http.StatusInternalServerError
	switch bizErr.Code {
	case customError.ErrCodeInvalidLoanParameters,
		customError.ErrCodeValidation,
		customError.ErrCodeReconciliation:
		status = http.StatusBadRequest
	case customError.ErrCodeInvalidTransition,
		customError.ErrCodeLockHeld:
		status = http.StatusConflict
	case customError.ErrCodeApplicationNotFound:
		status = http.StatusNotFound
	}

	response.Error(w, status, bizErr.Message, bizErr.Code, bizErr.Err)
}
