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
	"atmwater-backend/internal/features/application/models"
	appmemory "atmwater-backend/internal/features/application/repository/memory"
	usermodels "atmwater-backend/internal/features/user/models"
	usermemory "atmwater-backend/internal/features/user/repository/memory"
)

type fixture struct {
	svc   ApplicationService
	users *usermemory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := usermemory.NewStore()
	apps := appmemory.NewStore()
	audit := auditservice.NewAuditService(auditmemory.NewStore())
	return &fixture{
		svc:   NewApplicationService(apps, users, audit),
		users: users,
	}
}

func (f *fixture) addUser(t *testing.T, role usermodels.Role) *usermodels.User {
	t.Helper()
	u := &usermodels.User{
		ID:          uuid.NewString(),
		PhoneNumber: "+628" + uuid.NewString()[:10],
		Name:        "Test User",
		Role:        role,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestSubmitCreatesPendingApplication(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleCustomer)

	app, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{
		Type:      string(models.TypeSteward),
		Documents: models.Documents{IDCardURL: "https://files.example/id.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, models.TypeSteward, app.Type)
	assert.Equal(t, applicant.ID, app.ApplicantID)
	assert.Empty(t, app.Approvals)
}

func TestSubmitRejectsDuplicateOpenApplication(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleCustomer)

	_, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeRP)})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeRP)})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestSubmitRejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleCustomer)

	_, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: "Janitor"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestSubmitRejectsRoleAlreadyHeld(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleSteward)

	_, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeSteward)})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestSubmitSuperAdminRequiresRP(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleCustomer)

	_, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeSuperAdmin)})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))

	rp := f.addUser(t, usermodels.RoleRP)
	_, err = f.svc.Submit(context.Background(), rp, models.SubmitRequest{Type: string(models.TypeSuperAdmin)})
	assert.NoError(t, err)
}

func TestReviewApprovalUpgradesApplicant(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleCustomer)
	reviewer := f.addUser(t, usermodels.RoleBusiness)

	app, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeSteward)})
	require.NoError(t, err)

	reviewed, err := f.svc.Review(context.Background(), reviewer, app.ID, models.ReviewRequest{
		Status:  string(models.StatusApproved),
		Comment: "complete documents",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, reviewed.Status)

	approval, ok := reviewed.Approvals[models.TrackBusiness]
	require.True(t, ok)
	assert.Equal(t, reviewer.ID, approval.ReviewerID)
	assert.Equal(t, models.StatusApproved, approval.Status)

	updated, err := f.users.GetByID(context.Background(), applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, usermodels.RoleSteward, updated.Role)
}

func TestReviewRejectionKeepsRoleAndRecordsReason(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleCustomer)
	reviewer := f.addUser(t, usermodels.RoleGM)

	app, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeRP)})
	require.NoError(t, err)

	reviewed, err := f.svc.Review(context.Background(), reviewer, app.ID, models.ReviewRequest{
		Status:  string(models.StatusRejected),
		Comment: "missing salary proof",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, reviewed.Status)
	assert.Equal(t, "missing salary proof", reviewed.RejectionReason)

	unchanged, err := f.users.GetByID(context.Background(), applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, usermodels.RoleCustomer, unchanged.Role)
}

func TestReviewMarksReviewing(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleCustomer)
	reviewer := f.addUser(t, usermodels.RoleBusiness)

	app, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeSteward)})
	require.NoError(t, err)

	reviewed, err := f.svc.Review(context.Background(), reviewer, app.ID, models.ReviewRequest{
		Status: string(models.StatusReviewing),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewing, reviewed.Status)
}

func TestReviewTrackRouting(t *testing.T) {
	tests := []struct {
		name     string
		appType  models.ApplicationType
		reviewer usermodels.Role
		allowed  bool
	}{
		{"business reviews steward", models.TypeSteward, usermodels.RoleBusiness, true},
		{"gm cannot review steward", models.TypeSteward, usermodels.RoleGM, false},
		{"gm reviews rp", models.TypeRP, usermodels.RoleGM, true},
		{"business cannot review rp", models.TypeRP, usermodels.RoleBusiness, false},
		{"super-admin reviews anything", models.TypeRP, usermodels.RoleSuperAdmin, true},
		{"admin cannot review super-admin track", models.TypeSuperAdmin, usermodels.RoleAdmin, false},
		{"gm cannot review super-admin track", models.TypeSuperAdmin, usermodels.RoleGM, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			applicantRole := usermodels.RoleCustomer
			if tc.appType == models.TypeSuperAdmin {
				applicantRole = usermodels.RoleRP
			}
			applicant := f.addUser(t, applicantRole)
			reviewer := f.addUser(t, tc.reviewer)

			app, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(tc.appType)})
			require.NoError(t, err)

			_, err = f.svc.Review(context.Background(), reviewer, app.ID, models.ReviewRequest{
				Status: string(models.StatusApproved),
			})
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
			}
		})
	}
}

func TestReviewDecidedApplicationConflicts(t *testing.T) {
	f := newFixture(t)
	applicant := f.addUser(t, usermodels.RoleCustomer)
	reviewer := f.addUser(t, usermodels.RoleBusiness)

	app, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeSteward)})
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), reviewer, app.ID, models.ReviewRequest{Status: string(models.StatusRejected)})
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), reviewer, app.ID, models.ReviewRequest{Status: string(models.StatusApproved)})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestReviewUnknownApplication(t *testing.T) {
	f := newFixture(t)
	reviewer := f.addUser(t, usermodels.RoleSuperAdmin)

	_, err := f.svc.Review(context.Background(), reviewer, uuid.NewString(), models.ReviewRequest{
		Status: string(models.StatusApproved),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestSingletonRoleBlocksSecondHolder(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, usermodels.RoleSuperAdmin) // current holder
	reviewer := f.addUser(t, usermodels.RoleSuperAdmin)
	applicant := f.addUser(t, usermodels.RoleRP)

	app, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(models.TypeSuperAdmin)})
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), reviewer, app.ID, models.ReviewRequest{Status: string(models.StatusApproved)})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))

	unchanged, err := f.users.GetByID(context.Background(), applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, usermodels.RoleRP, unchanged.Role)
}

func TestPendingCountScopedByReviewerRole(t *testing.T) {
	f := newFixture(t)
	superAdmin := f.addUser(t, usermodels.RoleSuperAdmin)
	gm := f.addUser(t, usermodels.RoleGM)
	business := f.addUser(t, usermodels.RoleBusiness)
	customer := f.addUser(t, usermodels.RoleCustomer)

	for _, appType := range []models.ApplicationType{models.TypeSteward, models.TypeRP, models.TypeSuperAdmin} {
		applicantRole := usermodels.RoleCustomer
		if appType == models.TypeSuperAdmin {
			applicantRole = usermodels.RoleRP
		}
		applicant := f.addUser(t, applicantRole)
		_, err := f.svc.Submit(context.Background(), applicant, models.SubmitRequest{Type: string(appType)})
		require.NoError(t, err)
	}

	count, err := f.svc.PendingCount(context.Background(), superAdmin)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = f.svc.PendingCount(context.Background(), gm)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = f.svc.PendingCount(context.Background(), business)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = f.svc.PendingCount(context.Background(), customer)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
}

func TestMyApplicationsOnlyReturnsOwn(t *testing.T) {
	f := newFixture(t)
	a := f.addUser(t, usermodels.RoleCustomer)
	b := f.addUser(t, usermodels.RoleCustomer)

	_, err := f.svc.Submit(context.Background(), a, models.SubmitRequest{Type: string(models.TypeSteward)})
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), b, models.SubmitRequest{Type: string(models.TypeRP)})
	require.NoError(t, err)

	apps, err := f.svc.MyApplications(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, a.ID, apps[0].ApplicantID)
}
