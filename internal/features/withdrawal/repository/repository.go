package repository

import (
	"context"
	"time"

	"atmwater-backend/internal/features/withdrawal/models"
)

// StatusUpdate carries the reviewer fields written alongside a transition.
type StatusUpdate struct {
	ReviewerID      string
	RejectionReason string
	PaidAt          *time.Time
}

// WithdrawalRepository persists withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.Withdrawal) error
	GetByID(ctx context.Context, id string) (*models.Withdrawal, error)

	// UpdateStatus transitions a withdrawal from -> to as a single
	// compare-and-set. It returns a Conflict error if the withdrawal is no
	// longer in the from status, which makes refunds exactly-once under
	// concurrent reviewers.
	UpdateStatus(ctx context.Context, id string, from, to models.WithdrawalStatus, change StatusUpdate) (*models.Withdrawal, error)

	ListByUser(ctx context.Context, userID string) ([]*models.Withdrawal, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Withdrawal, error)
}
