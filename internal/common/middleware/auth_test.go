package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atmwater-backend/internal/features/auth/token"
	permmodels "atmwater-backend/internal/features/permission/models"
	permmemory "atmwater-backend/internal/features/permission/repository/memory"
	permservice "atmwater-backend/internal/features/permission/service"
	usermodels "atmwater-backend/internal/features/user/models"
	usermemory "atmwater-backend/internal/features/user/repository/memory"
	userservice "atmwater-backend/internal/features/user/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type gateFixture struct {
	router      *gin.Engine
	tokens      *token.Manager
	users       *usermemory.Store
	permissions permservice.PermissionService
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	users := usermemory.NewStore()
	tokens := token.NewManager("test-secret", time.Hour)
	permissions := permservice.NewPermissionService(permmemory.NewStore(), nil)

	router := gin.New()
	protect := Protect(tokens, userservice.NewUserService(users))

	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) }
	router.GET("/protected", protect, ok)
	router.GET("/super-admin-only", protect, Authorize(usermodels.RoleSuperAdmin), ok)
	router.GET("/logs", protect, CheckPermission(permissions, permmodels.FuncViewLogs), ok)

	return &gateFixture{router: router, tokens: tokens, users: users, permissions: permissions}
}

func (f *gateFixture) login(t *testing.T, role usermodels.Role) string {
	t.Helper()
	user := &usermodels.User{
		ID:          "user-" + string(role),
		PhoneNumber: "+62812" + string(role),
		Role:        role,
	}
	require.NoError(t, f.users.Create(context.Background(), user))

	tok, err := f.tokens.Generate(user)
	require.NoError(t, err)
	return tok
}

func (f *gateFixture) get(path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestProtectRejectsMissingToken(t *testing.T) {
	f := newGateFixture(t)

	rec := f.get("/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectRejectsBadToken(t *testing.T) {
	f := newGateFixture(t)

	rec := f.get("/protected", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectPassesValidToken(t *testing.T) {
	f := newGateFixture(t)
	tok := f.login(t, usermodels.RoleCustomer)

	rec := f.get("/protected", tok)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorizeEnforcesRole(t *testing.T) {
	f := newGateFixture(t)

	rec := f.get("/super-admin-only", f.login(t, usermodels.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "User role [Admin] is not authorized")

	rec = f.get("/super-admin-only", f.login(t, usermodels.RoleSuperAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckPermissionDefaultDeny(t *testing.T) {
	f := newGateFixture(t)

	// No matrix entry exists for view_logs.
	rec := f.get("/logs", f.login(t, usermodels.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The Super-Admin bypasses the matrix entirely.
	rec = f.get("/logs", f.login(t, usermodels.RoleSuperAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckPermissionHonorsGrants(t *testing.T) {
	f := newGateFixture(t)
	err := f.permissions.Update(context.Background(), []permmodels.MatrixEntry{{
		FunctionKey: permmodels.FuncViewLogs,
		Permissions: map[usermodels.Role]bool{usermodels.RoleFinance: true},
	}})
	require.NoError(t, err)

	rec := f.get("/logs", f.login(t, usermodels.RoleFinance))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get("/logs", f.login(t, usermodels.RoleGM))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
