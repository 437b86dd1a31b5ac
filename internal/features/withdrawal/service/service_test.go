package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "atmwater-backend/internal/common/errors"
	auditmemory "atmwater-backend/internal/features/audit/repository/memory"
	auditservice "atmwater-backend/internal/features/audit/service"
	usermodels "atmwater-backend/internal/features/user/models"
	usermemory "atmwater-backend/internal/features/user/repository/memory"
	"atmwater-backend/internal/features/withdrawal/models"
	wmemory "atmwater-backend/internal/features/withdrawal/repository/memory"
)

const testMinimum = 100000

var testBank = models.BankDetails{
	BankName:      "BCA",
	AccountNumber: "1234567890",
	AccountHolder: "Budi Santoso",
}

type fixture struct {
	svc   WithdrawalService
	users *usermemory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := usermemory.NewStore()
	audit := auditservice.NewAuditService(auditmemory.NewStore())
	return &fixture{
		svc:   NewWithdrawalService(wmemory.NewStore(), users, audit, testMinimum),
		users: users,
	}
}

func (f *fixture) addUser(t *testing.T, role usermodels.Role, balance int64) *usermodels.User {
	t.Helper()
	u := &usermodels.User{
		ID:          uuid.NewString(),
		PhoneNumber: "+628" + uuid.NewString()[:10],
		Name:        "Test User",
		Role:        role,
		Balance:     balance,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u.Balance
}

func TestRequestHoldsBalance(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, usermodels.RoleSteward, 200000)

	w, err := f.svc.Request(context.Background(), user, models.RequestPayload{
		Amount:      150000,
		BankDetails: testBank,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, w.Status)
	assert.Equal(t, int64(150000), w.Amount)
	assert.Equal(t, int64(50000), f.balance(t, user.ID))
}

func TestRequestInsufficientBalanceLeavesBalanceUntouched(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, usermodels.RoleSteward, 50000)

	_, err := f.svc.Request(context.Background(), user, models.RequestPayload{
		Amount:      60000,
		BankDetails: testBank,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInsufficientFunds))
	assert.Equal(t, int64(50000), f.balance(t, user.ID))
}

func TestRequestBelowMinimum(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, usermodels.RoleSteward, 200000)

	_, err := f.svc.Request(context.Background(), user, models.RequestPayload{
		Amount:      99999,
		BankDetails: testBank,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeBelowMinimum))
	assert.Equal(t, int64(200000), f.balance(t, user.ID))
}

func TestRequestNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, usermodels.RoleSteward, 200000)

	_, err := f.svc.Request(context.Background(), user, models.RequestPayload{
		Amount:      -1,
		BankDetails: testBank,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestRejectRefundsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, usermodels.RoleSteward, 200000)
	reviewer := f.addUser(t, usermodels.RoleFinance, 0)

	w, err := f.svc.Request(context.Background(), user, models.RequestPayload{
		Amount:      150000,
		BankDetails: testBank,
	})
	require.NoError(t, err)
	require.Equal(t, int64(50000), f.balance(t, user.ID))

	rejected, err := f.svc.Reject(context.Background(), reviewer, w.ID, "bad bank details")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "bad bank details", rejected.RejectionReason)
	assert.Equal(t, int64(200000), f.balance(t, user.ID))

	// A second reject must lose the compare-and-set and must not refund again.
	_, err = f.svc.Reject(context.Background(), reviewer, w.ID, "again")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
	assert.Equal(t, int64(200000), f.balance(t, user.ID))
}

func TestApproveThenPaid(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, usermodels.RoleSteward, 200000)
	reviewer := f.addUser(t, usermodels.RoleFinance, 0)

	w, err := f.svc.Request(context.Background(), user, models.RequestPayload{
		Amount:      150000,
		BankDetails: testBank,
	})
	require.NoError(t, err)

	approved, err := f.svc.Approve(context.Background(), reviewer, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, reviewer.ID, approved.ReviewerID)

	paid, err := f.svc.MarkPaid(context.Background(), reviewer, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// Approval never refunds the hold.
	assert.Equal(t, int64(50000), f.balance(t, user.ID))
}

func TestTerminalTransitionsConflict(t *testing.T) {
	f := newFixture(t)
	user := f.addUser(t, usermodels.RoleSteward, 500000)
	reviewer := f.addUser(t, usermodels.RoleFinance, 0)

	w, err := f.svc.Request(context.Background(), user, models.RequestPayload{
		Amount:      150000,
		BankDetails: testBank,
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), reviewer, w.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), reviewer, w.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))

	_, err = f.svc.Reject(context.Background(), reviewer, w.ID, "late")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))

	_, err = f.svc.MarkPaid(context.Background(), reviewer, w.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(context.Background(), reviewer, w.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestDecisionOnUnknownWithdrawal(t *testing.T) {
	f := newFixture(t)
	reviewer := f.addUser(t, usermodels.RoleFinance, 0)

	_, err := f.svc.Approve(context.Background(), reviewer, uuid.NewString())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestHistoryOnlyReturnsOwn(t *testing.T) {
	f := newFixture(t)
	a := f.addUser(t, usermodels.RoleSteward, 500000)
	b := f.addUser(t, usermodels.RoleSteward, 500000)

	_, err := f.svc.Request(context.Background(), a, models.RequestPayload{Amount: 100000, BankDetails: testBank})
	require.NoError(t, err)
	_, err = f.svc.Request(context.Background(), b, models.RequestPayload{Amount: 100000, BankDetails: testBank})
	require.NoError(t, err)

	history, err := f.svc.History(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, a.ID, history[0].UserID)
}
