package repository

import (
	"context"

	"atmwater-backend/internal/features/user/models"
)

// UserRepository persists users. Balance mutations go through the atomic
// Decrement/IncrementBalance methods only; a read-compare-save of the balance
// is a race and must not be reintroduced.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)

	// FindByRole returns any user currently holding the role, or NotFound.
	// Used for the singleton-role invariant.
	FindByRole(ctx context.Context, role models.Role) (*models.User, error)

	List(ctx context.Context, role *models.Role) ([]*models.User, error)

	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id string, role models.Role) error
	SetPassword(ctx context.Context, id string, passwordHash string) error

	// DecrementBalance applies a conditional hold: it subtracts amount only if
	// the current balance covers it, as a single atomic operation. Returns an
	// InsufficientFunds error otherwise.
	DecrementBalance(ctx context.Context, id string, amount int64) error

	// IncrementBalance credits amount back (withdrawal refund).
	IncrementBalance(ctx context.Context, id string, amount int64) error
}
