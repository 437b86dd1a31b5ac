package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/auth/repository"
)

const keyPrefix = "otp:"

type otpRepository struct {
	client *redis.Client
}

func NewOTPRepository(client *redis.Client) repository.OTPRepository {
	return &otpRepository{client: client}
}

func (r *otpRepository) Save(ctx context.Context, phoneNumber, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, keyPrefix+phoneNumber, code, ttl).Err(); err != nil {
		return apperrors.NewDatabaseError("save otp", err)
	}
	return nil
}

func (r *otpRepository) Get(ctx context.Context, phoneNumber string) (string, error) {
	code, err := r.client.Get(ctx, keyPrefix+phoneNumber).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.NewNotFoundError("OTP", phoneNumber)
	}
	if err != nil {
		return "", apperrors.NewDatabaseError("get otp", err)
	}
	return code, nil
}

func (r *otpRepository) Delete(ctx context.Context, phoneNumber string) error {
	if err := r.client.Del(ctx, keyPrefix+phoneNumber).Err(); err != nil {
		return apperrors.NewDatabaseError("delete otp", err)
	}
	return nil
}
