package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/permission/models"
	"atmwater-backend/internal/features/permission/repository/memory"
	usermodels "atmwater-backend/internal/features/user/models"
)

func newService(t *testing.T) (PermissionService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewPermissionService(store, nil), store
}

func seed(t *testing.T, svc PermissionService, key string, grants map[usermodels.Role]bool) {
	t.Helper()
	err := svc.Update(context.Background(), []models.MatrixEntry{
		{FunctionKey: key, Label: key, Permissions: grants},
	})
	require.NoError(t, err)
}

func TestCheckSuperAdminBypassesMatrix(t *testing.T) {
	svc, _ := newService(t)

	// No entry exists at all; the Super-Admin still passes.
	err := svc.Check(context.Background(), usermodels.RoleSuperAdmin, models.FuncApproveWithdrawals)
	assert.NoError(t, err)
}

func TestCheckMissingEntryDeniesEveryoneElse(t *testing.T) {
	svc, _ := newService(t)

	for _, role := range usermodels.AllRoles() {
		if role == usermodels.RoleSuperAdmin {
			continue
		}
		err := svc.Check(context.Background(), role, models.FuncEditPrices)
		require.Error(t, err, "role %s", role)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePermissionNotDefined))
	}
}

func TestCheckGrantedRolePasses(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc, models.FuncApproveWithdrawals, map[usermodels.Role]bool{
		usermodels.RoleFinance: true,
		usermodels.RoleAdmin:   false,
	})

	assert.NoError(t, svc.Check(context.Background(), usermodels.RoleFinance, models.FuncApproveWithdrawals))

	// An explicit false is a denial, same as absence from the entry.
	err := svc.Check(context.Background(), usermodels.RoleAdmin, models.FuncApproveWithdrawals)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))

	err = svc.Check(context.Background(), usermodels.RoleCustomer, models.FuncApproveWithdrawals)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
}

func TestCheckUnknownRoleDenied(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc, models.FuncViewLogs, map[usermodels.Role]bool{usermodels.RoleAdmin: true})

	err := svc.Check(context.Background(), usermodels.Role("Intruder"), models.FuncViewLogs)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
}

func TestUpdateRejectsUnknownRole(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Update(context.Background(), []models.MatrixEntry{
		{FunctionKey: models.FuncViewLogs, Permissions: map[usermodels.Role]bool{"Janitor": true}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRole))
}

func TestUpdateTakesEffectOnNextCheck(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc, models.FuncManageUnits, map[usermodels.Role]bool{usermodels.RoleGM: false})

	err := svc.Check(context.Background(), usermodels.RoleGM, models.FuncManageUnits)
	require.Error(t, err)

	seed(t, svc, models.FuncManageUnits, map[usermodels.Role]bool{usermodels.RoleGM: true})
	assert.NoError(t, svc.Check(context.Background(), usermodels.RoleGM, models.FuncManageUnits))
}

func TestListReturnsAllEntries(t *testing.T) {
	svc, _ := newService(t)
	seed(t, svc, models.FuncViewLogs, map[usermodels.Role]bool{usermodels.RoleAdmin: true})
	seed(t, svc, models.FuncEditPrices, map[usermodels.Role]bool{usermodels.RoleGM: true})

	entries, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
