package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/ratelimit"
	"atmwater-backend/internal/common/validation"
	"atmwater-backend/internal/features/auth/models"
	"atmwater-backend/internal/features/auth/repository"
	"atmwater-backend/internal/features/auth/token"
	usermodels "atmwater-backend/internal/features/user/models"
	userrepo "atmwater-backend/internal/features/user/repository"
	"atmwater-backend/internal/platform/whatsapp"
)

type AuthService interface {
	// RequestOTP sends a login code to the phone number, registering the
	// user as a Customer first if the number is unknown. Requests are
	// throttled per number; a throttled call returns a rate-limit error
	// carrying the retry-after hint.
	RequestOTP(ctx context.Context, payload models.RequestOTPPayload) (*models.OTPResponse, error)

	// VerifyOTP exchanges a delivered code for a JWT. Codes are single-use.
	VerifyOTP(ctx context.Context, payload models.VerifyOTPPayload) (*models.AuthResponse, error)

	LoginWithPassword(ctx context.Context, payload models.PasswordLoginPayload) (*models.AuthResponse, error)

	SetPassword(ctx context.Context, user *usermodels.User, password string) error
}

type authService struct {
	otps    repository.OTPRepository
	users   userrepo.UserRepository
	tokens  *token.Manager
	limiter ratelimit.Limiter
	sender  whatsapp.Sender
	otpTTL  time.Duration
}

func NewAuthService(
	otps repository.OTPRepository,
	users userrepo.UserRepository,
	tokens *token.Manager,
	limiter ratelimit.Limiter,
	sender whatsapp.Sender,
	otpTTL time.Duration,
) AuthService {
	return &authService{
		otps:    otps,
		users:   users,
		tokens:  tokens,
		limiter: limiter,
		sender:  sender,
		otpTTL:  otpTTL,
	}
}

func (s *authService) RequestOTP(ctx context.Context, payload models.RequestOTPPayload) (*models.OTPResponse, error) {
	phone := strings.TrimSpace(payload.PhoneNumber)
	if err := validation.ValidatePhoneNumber(phone); err != nil {
		return nil, apperrors.NewValidationError("phoneNumber", err.Error())
	}

	result, err := s.limiter.Allow(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		return nil, apperrors.NewRateLimitError(result.RetryAfter)
	}

	if err := s.ensureUser(ctx, phone, payload); err != nil {
		return nil, err
	}

	code, err := generateOTP()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to generate OTP")
	}

	if err := s.otps.Save(ctx, phone, code, s.otpTTL); err != nil {
		return nil, err
	}

	// Delivery happens off the request path; a slow WhatsApp call must not
	// block the response, and a failed one is retried by the user.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.sender.SendOTP(sendCtx, phone, code); err != nil {
			log.Error().Err(err).Str("phone_number", phone).Msg("failed to deliver OTP")
		}
	}()

	return &models.OTPResponse{
		Channel:   "whatsapp",
		ExpiresIn: int(s.otpTTL.Seconds()),
	}, nil
}

// ensureUser registers the phone number as a Customer if it is new. A valid
// referral code links the new user to its owner.
func (s *authService) ensureUser(ctx context.Context, phone string, payload models.RequestOTPPayload) error {
	_, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		return nil
	}
	if !apperrors.IsCode(err, apperrors.ErrCodeUserNotFound) {
		return err
	}

	user := &usermodels.User{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		Name:        payload.Name,
		Role:        usermodels.RoleCustomer,
	}

	referral, err := generateReferralCode()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to generate referral code")
	}
	user.ReferralCode = referral

	if payload.ReferralCode != "" {
		owner, err := s.users.GetByReferralCode(ctx, strings.ToUpper(payload.ReferralCode))
		if err != nil {
			if !apperrors.IsCode(err, apperrors.ErrCodeUserNotFound) {
				return err
			}
			return apperrors.NewValidationError("referralCode", "referral code not found")
		}
		user.ManagedBy = &owner.ID
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent request may have registered the number first.
		if apperrors.IsCode(err, apperrors.ErrCodeConflict) {
			return nil
		}
		return err
	}

	log.Info().
		Str("user_id", user.ID).
		Str("phone_number", phone).
		Msg("auto-registered new customer")
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, payload models.VerifyOTPPayload) (*models.AuthResponse, error) {
	phone := strings.TrimSpace(payload.PhoneNumber)

	stored, err := s.otps.Get(ctx, phone)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			return nil, apperrors.NewUnauthorizedError("Invalid or expired OTP")
		}
		return nil, err
	}
	if stored != payload.Code {
		return nil, apperrors.NewUnauthorizedError("Invalid or expired OTP")
	}

	if err := s.otps.Delete(ctx, phone); err != nil {
		return nil, err
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	return s.login(ctx, user)
}

func (s *authService) LoginWithPassword(ctx context.Context, payload models.PasswordLoginPayload) (*models.AuthResponse, error) {
	user, err := s.users.GetByPhone(ctx, strings.TrimSpace(payload.PhoneNumber))
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeUserNotFound) {
			return nil, apperrors.NewUnauthorizedError("Invalid phone number or password")
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, apperrors.NewUnauthorizedError("Password login is not set up for this account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid phone number or password")
	}

	return s.login(ctx, user)
}

func (s *authService) SetPassword(ctx context.Context, user *usermodels.User, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return apperrors.NewValidationError("password", err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to hash password")
	}

	return s.users.SetPassword(ctx, user.ID, string(hash))
}

func (s *authService) login(ctx context.Context, user *usermodels.User) (*models.AuthResponse, error) {
	tok, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	user.LastLogin = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	return &models.AuthResponse{Token: tok, User: user.ToResponse()}, nil
}

// generateOTP returns a 4-digit code using crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// generateReferralCode returns a 6-character uppercase hex code.
func generateReferralCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
