package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/ratelimit"
	"atmwater-backend/internal/features/auth/models"
	otpmemory "atmwater-backend/internal/features/auth/repository/memory"
	"atmwater-backend/internal/features/auth/token"
	usermodels "atmwater-backend/internal/features/user/models"
	usermemory "atmwater-backend/internal/features/user/repository/memory"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  int
	codes []string
}

func (r *recordingSender) SendOTP(_ context.Context, _, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent++
	r.codes = append(r.codes, code)
	return nil
}

type fixture struct {
	svc    AuthService
	users  *usermemory.Store
	otps   *otpmemory.Store
	sender *recordingSender
}

func newFixture(t *testing.T, maxRequests int) *fixture {
	t.Helper()
	users := usermemory.NewStore()
	otps := otpmemory.NewStore()
	sender := &recordingSender{}
	svc := NewAuthService(
		otps,
		users,
		token.NewManager("test-secret", time.Hour),
		ratelimit.NewFixedWindow(10*time.Minute, maxRequests),
		sender,
		5*time.Minute,
	)
	return &fixture{svc: svc, users: users, otps: otps, sender: sender}
}

const testPhone = "+628123456789"

func TestRequestOTPAutoRegistersCustomer(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{
		PhoneNumber: testPhone,
		Name:        "Budi",
	})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", resp.Channel)
	assert.Equal(t, 300, resp.ExpiresIn)

	user, err := f.users.GetByPhone(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Equal(t, usermodels.RoleCustomer, user.Role)
	assert.Equal(t, "Budi", user.Name)
	assert.Len(t, user.ReferralCode, 6)
}

func TestRequestOTPInvalidPhone(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: "12345"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestRequestOTPRateLimited(t *testing.T) {
	f := newFixture(t, 3)

	for i := 0; i < 3; i++ {
		_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: testPhone})
		require.NoError(t, err)
	}

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: testPhone})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRateLimited))

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.NotEmpty(t, appErr.Details["retry_after"])
}

func TestRequestOTPRateLimitIsPerNumber(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: testPhone})
	require.NoError(t, err)

	_, err = f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: "+628987654321"})
	assert.NoError(t, err)
}

func TestVerifyOTPIssuesSingleUseToken(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: testPhone})
	require.NoError(t, err)

	code, err := f.otps.Get(context.Background(), testPhone)
	require.NoError(t, err)

	resp, err := f.svc.VerifyOTP(context.Background(), models.VerifyOTPPayload{
		PhoneNumber: testPhone,
		Code:        code,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, testPhone, resp.User.PhoneNumber)

	// The code was consumed; replaying it must fail.
	_, err = f.svc.VerifyOTP(context.Background(), models.VerifyOTPPayload{
		PhoneNumber: testPhone,
		Code:        code,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestVerifyOTPWrongCodeDoesNotConsume(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: testPhone})
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), models.VerifyOTPPayload{
		PhoneNumber: testPhone,
		Code:        "0000\n",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))

	code, err := f.otps.Get(context.Background(), testPhone)
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), models.VerifyOTPPayload{
		PhoneNumber: testPhone,
		Code:        code,
	})
	assert.NoError(t, err)
}

func TestReferralCodeLinksManager(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: testPhone})
	require.NoError(t, err)
	owner, err := f.users.GetByPhone(context.Background(), testPhone)
	require.NoError(t, err)

	_, err = f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{
		PhoneNumber:  "+628987654321",
		ReferralCode: owner.ReferralCode,
	})
	require.NoError(t, err)

	referred, err := f.users.GetByPhone(context.Background(), "+628987654321")
	require.NoError(t, err)
	require.NotNil(t, referred.ManagedBy)
	assert.Equal(t, owner.ID, *referred.ManagedBy)
}

func TestUnknownReferralCodeRejected(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{
		PhoneNumber:  testPhone,
		ReferralCode: "ZZZZZZ",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestSetPasswordThenLogin(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: testPhone})
	require.NoError(t, err)
	user, err := f.users.GetByPhone(context.Background(), testPhone)
	require.NoError(t, err)

	require.NoError(t, f.svc.SetPassword(context.Background(), user, "s3cret-pass"))

	resp, err := f.svc.LoginWithPassword(context.Background(), models.PasswordLoginPayload{
		PhoneNumber: testPhone,
		Password:    "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = f.svc.LoginWithPassword(context.Background(), models.PasswordLoginPayload{
		PhoneNumber: testPhone,
		Password:    "wrong-pass",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestPasswordLoginWithoutPasswordSet(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.RequestOTP(context.Background(), models.RequestOTPPayload{PhoneNumber: testPhone})
	require.NoError(t, err)

	_, err = f.svc.LoginWithPassword(context.Background(), models.PasswordLoginPayload{
		PhoneNumber: testPhone,
		Password:    "anything",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestSetPasswordTooShort(t *testing.T) {
	f := newFixture(t, 3)
	user := &usermodels.User{ID: "u1", PhoneNumber: testPhone, Role: usermodels.RoleCustomer}
	require.NoError(t, f.users.Create(context.Background(), user))

	err := f.svc.SetPassword(context.Background(), user, "abc")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}
