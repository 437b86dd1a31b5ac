package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/withdrawal/models"
	"atmwater-backend/internal/features/withdrawal/repository"
)

// Store is an in-memory WithdrawalRepository used by tests. Status
// transitions are compare-and-set under the lock, matching the SQL
// implementation's concurrency guarantees.
type Store struct {
	mu          sync.RWMutex
	withdrawals map[string]*models.Withdrawal
}

func NewStore() *Store {
	return &Store{withdrawals: make(map[string]*models.Withdrawal)}
}

var _ repository.WithdrawalRepository = (*Store)(nil)

func (s *Store) Create(_ context.Context, w *models.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	s.withdrawals[w.ID] = cloneWithdrawal(w)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Withdrawal", id)
	}
	return cloneWithdrawal(w), nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, from, to models.WithdrawalStatus, change repository.StatusUpdate) (*models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Withdrawal", id)
	}
	if w.Status != from {
		return nil, apperrors.NewConflictError("withdrawal",
			fmt.Sprintf("withdrawal is no longer %s", from))
	}

	w.Status = to
	w.ReviewerID = change.ReviewerID
	w.RejectionReason = change.RejectionReason
	w.PaidAt = change.PaidAt
	w.UpdatedAt = time.Now()
	return cloneWithdrawal(w), nil
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Withdrawal
	for _, w := range s.withdrawals {
		if w.UserID == userID {
			out = append(out, cloneWithdrawal(w))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) List(_ context.Context, filter models.ListFilter) ([]*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Withdrawal
	for _, w := range s.withdrawals {
		if filter.Status != nil && w.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && w.UserID != *filter.UserID {
			continue
		}
		out = append(out, cloneWithdrawal(w))
	}
	sortNewestFirst(out)
	return out, nil
}

func cloneWithdrawal(w *models.Withdrawal) *models.Withdrawal {
	clone := *w
	if w.PaidAt != nil {
		t := *w.PaidAt
		clone.PaidAt = &t
	}
	return &clone
}

func sortNewestFirst(ws []*models.Withdrawal) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].CreatedAt.After(ws[j].CreatedAt) })
}
