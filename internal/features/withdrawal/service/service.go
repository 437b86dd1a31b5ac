package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/validation"
	auditmodels "atmwater-backend/internal/features/audit/models"
	auditservice "atmwater-backend/internal/features/audit/service"
	usermodels "atmwater-backend/internal/features/user/models"
	userrepo "atmwater-backend/internal/features/user/repository"
	"atmwater-backend/internal/features/withdrawal/models"
	"atmwater-backend/internal/features/withdrawal/repository"
)

type WithdrawalService interface {
	// Request places a withdrawal. The amount is held from the user's
	// balance atomically before the request is persisted, so the balance
	// can never be overdrawn by concurrent requests.
	Request(ctx context.Context, user *usermodels.User, payload models.RequestPayload) (*models.Withdrawal, error)

	Approve(ctx context.Context, reviewer *usermodels.User, id string) (*models.Withdrawal, error)

	// Reject declines a pending withdrawal and refunds the held amount.
	// The refund is issued exactly once: the status transition is a
	// compare-and-set, and only the caller that wins it credits the user.
	Reject(ctx context.Context, reviewer *usermodels.User, id string, reason string) (*models.Withdrawal, error)

	// MarkPaid records that an approved withdrawal has been disbursed.
	MarkPaid(ctx context.Context, reviewer *usermodels.User, id string) (*models.Withdrawal, error)

	History(ctx context.Context, user *usermodels.User) ([]*models.Withdrawal, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Withdrawal, error)
}

type withdrawalService struct {
	repo    repository.WithdrawalRepository
	users   userrepo.UserRepository
	audit   auditservice.AuditService
	minimum int64
}

func NewWithdrawalService(repo repository.WithdrawalRepository, users userrepo.UserRepository, audit auditservice.AuditService, minimum int64) WithdrawalService {
	return &withdrawalService{repo: repo, users: users, audit: audit, minimum: minimum}
}

func (s *withdrawalService) Request(ctx context.Context, user *usermodels.User, payload models.RequestPayload) (*models.Withdrawal, error) {
	if err := validation.ValidateAmount(payload.Amount); err != nil {
		return nil, apperrors.NewValidationError("amount", err.Error())
	}
	if payload.Amount < s.minimum {
		return nil, apperrors.Newf(apperrors.ErrCodeBelowMinimum,
			"Minimum withdrawal amount is Rp %d", s.minimum)
	}

	// Hold the funds first. This is the only place the request can fail on
	// balance, and it fails without touching the withdrawal table.
	if err := s.users.DecrementBalance(ctx, user.ID, payload.Amount); err != nil {
		return nil, err
	}

	w := &models.Withdrawal{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Amount:      payload.Amount,
		Status:      models.StatusPending,
		BankDetails: payload.BankDetails,
	}

	if err := s.repo.Create(ctx, w); err != nil {
		// Release the hold so a storage failure does not strand funds.
		if refundErr := s.users.IncrementBalance(ctx, user.ID, payload.Amount); refundErr != nil {
			log.Error().Err(refundErr).
				Str("user_id", user.ID).
				Int64("amount", payload.Amount).
				Msg("failed to release hold after withdrawal create failure")
		}
		return nil, err
	}

	s.audit.Record(ctx, auditservice.Entry{
		Actor:  user,
		Module: auditmodels.ModuleWithdrawals,
		Action: "withdrawal.request",
		Details: map[string]interface{}{
			"withdrawalId": w.ID,
			"amount":       w.Amount,
		},
		Status: auditmodels.StatusSuccess,
	})

	log.Info().
		Str("withdrawal_id", w.ID).
		Str("user_id", user.ID).
		Int64("amount", w.Amount).
		Msg("withdrawal requested")

	return w, nil
}

func (s *withdrawalService) Approve(ctx context.Context, reviewer *usermodels.User, id string) (*models.Withdrawal, error) {
	w, err := s.repo.UpdateStatus(ctx, id, models.StatusPending, models.StatusApproved,
		repository.StatusUpdate{ReviewerID: reviewer.ID})
	if err != nil {
		return nil, err
	}

	s.recordDecision(ctx, reviewer, w, "withdrawal.approve")
	return w, nil
}

func (s *withdrawalService) Reject(ctx context.Context, reviewer *usermodels.User, id string, reason string) (*models.Withdrawal, error) {
	w, err := s.repo.UpdateStatus(ctx, id, models.StatusPending, models.StatusRejected,
		repository.StatusUpdate{ReviewerID: reviewer.ID, RejectionReason: reason})
	if err != nil {
		return nil, err
	}

	// We won the transition, so this refund happens exactly once.
	if err := s.users.IncrementBalance(ctx, w.UserID, w.Amount); err != nil {
		log.Error().Err(err).
			Str("withdrawal_id", w.ID).
			Str("user_id", w.UserID).
			Int64("amount", w.Amount).
			Msg("withdrawal rejected but refund failed")
		return nil, err
	}

	s.recordDecision(ctx, reviewer, w, "withdrawal.reject")

	log.Info().
		Str("withdrawal_id", w.ID).
		Str("user_id", w.UserID).
		Int64("amount", w.Amount).
		Msg("withdrawal rejected, funds refunded")

	return w, nil
}

func (s *withdrawalService) MarkPaid(ctx context.Context, reviewer *usermodels.User, id string) (*models.Withdrawal, error) {
	now := time.Now()
	w, err := s.repo.UpdateStatus(ctx, id, models.StatusApproved, models.StatusPaid,
		repository.StatusUpdate{ReviewerID: reviewer.ID, PaidAt: &now})
	if err != nil {
		return nil, err
	}

	s.recordDecision(ctx, reviewer, w, "withdrawal.paid")
	return w, nil
}

func (s *withdrawalService) History(ctx context.Context, user *usermodels.User) ([]*models.Withdrawal, error) {
	return s.repo.ListByUser(ctx, user.ID)
}

func (s *withdrawalService) List(ctx context.Context, filter models.ListFilter) ([]*models.Withdrawal, error) {
	return s.repo.List(ctx, filter)
}

func (s *withdrawalService) recordDecision(ctx context.Context, reviewer *usermodels.User, w *models.Withdrawal, action string) {
	s.audit.Record(ctx, auditservice.Entry{
		Actor:  reviewer,
		Module: auditmodels.ModuleWithdrawals,
		Action: action,
		Details: map[string]interface{}{
			"withdrawalId": w.ID,
			"userId":       w.UserID,
			"amount":       w.Amount,
		},
		Status: auditmodels.StatusSuccess,
	})
}
