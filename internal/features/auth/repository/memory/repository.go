package memory

import (
	"context"
	"sync"
	"time"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/auth/repository"
)

type entry struct {
	code      string
	expiresAt time.Time
}

// Store is an in-memory OTPRepository used by tests.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry), now: time.Now}
}

// WithClock overrides the time source for expiry tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

var _ repository.OTPRepository = (*Store)(nil)

func (s *Store) Save(_ context.Context, phoneNumber, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phoneNumber] = entry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *Store) Get(_ context.Context, phoneNumber string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[phoneNumber]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.entries, phoneNumber)
		return "", apperrors.NewNotFoundError("OTP", phoneNumber)
	}
	return e.code, nil
}

func (s *Store) Delete(_ context.Context, phoneNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phoneNumber)
	return nil
}
