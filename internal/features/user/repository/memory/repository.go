package memory

import (
	"context"
	"sync"
	"time"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/user/models"
	"atmwater-backend/internal/features/user/repository"
)

// Store is an in-memory UserRepository used by tests and local runs without a
// database. Balance mutations take the store lock, matching the atomicity the
// Postgres implementation gets from conditional UPDATEs.
type Store struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewStore() *Store {
	return &Store{users: make(map[string]*models.User)}
}

var _ repository.UserRepository = (*Store)(nil)

func (s *Store) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.PhoneNumber == user.PhoneNumber {
			return apperrors.NewConflictError("user", "phone number already registered")
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u *models.User) bool { return u.ID == id })
}

func (s *Store) GetByPhone(_ context.Context, phoneNumber string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u *models.User) bool { return u.PhoneNumber == phoneNumber })
}

func (s *Store) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u *models.User) bool { return u.ReferralCode == code })
}

func (s *Store) FindByRole(_ context.Context, role models.Role) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u *models.User) bool { return u.Role == role })
}

func (s *Store) findLocked(match func(*models.User) bool) (*models.User, error) {
	for _, u := range s.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
}

func (s *Store) List(_ context.Context, role *models.Role) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*models.User
	for _, u := range s.users {
		if role != nil && u.Role != *role {
			continue
		}
		clone := *u
		users = append(users, &clone)
	}
	return users, nil
}

func (s *Store) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.ManagedBy = user.ManagedBy
	existing.LastLogin = user.LastLogin
	existing.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdateRole(_ context.Context, id string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetPassword(_ context.Context, id string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

func (s *Store) DecrementBalance(_ context.Context, id string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	if user.Balance < amount {
		return apperrors.New(apperrors.ErrCodeInsufficientFunds, "Insufficient balance")
	}
	user.Balance -= amount
	user.UpdatedAt = time.Now()
	return nil
}

func (s *Store) IncrementBalance(_ context.Context, id string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	user.Balance += amount
	user.UpdatedAt = time.Now()
	return nil
}
