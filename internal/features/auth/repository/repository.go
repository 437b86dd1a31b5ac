package repository

import (
	"context"
	"time"
)

// OTPRepository stores one-time passwords keyed by phone number. Codes are
// single-use: Delete is called once a code verifies.
type OTPRepository interface {
	Save(ctx context.Context, phoneNumber, code string, ttl time.Duration) error

	// Get returns the stored code, or a NotFound error when no live code
	// exists for the number.
	Get(ctx context.Context, phoneNumber string) (string, error)

	Delete(ctx context.Context, phoneNumber string) error
}
