package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/middleware"
	permmodels "atmwater-backend/internal/features/permission/models"
	permservice "atmwater-backend/internal/features/permission/service"
	"atmwater-backend/internal/features/user/models"
	"atmwater-backend/internal/features/user/service"
)

type UserHandler struct {
	service     service.UserService
	permissions permservice.PermissionService
}

func NewUserHandler(service service.UserService, permissions permservice.PermissionService) *UserHandler {
	return &UserHandler{service: service, permissions: permissions}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, protect gin.HandlerFunc) {
	users := router.Group("/users")
	users.Use(protect)
	{
		users.GET("/me", h.me)
		users.PUT("/me", h.updateProfile)
	}

	admin := router.Group("/users/admin")
	admin.Use(protect, middleware.CheckPermission(h.permissions, permmodels.FuncManagePartners))
	{
		admin.GET("/list", h.list)
	}
}

type updateProfilePayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Router /users/me [get]
func (h *UserHandler) me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user.ToResponse()})
}

// @Summary Update my profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body updateProfilePayload true "Name and email"
// @Success 200 {object} models.UserResponse
// @Router /users/me [put]
func (h *UserHandler) updateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	var payload updateProfilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	resp, err := h.service.UpdateProfile(c.Request.Context(), user, payload.Name, payload.Email)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Success 200 {array} models.UserResponse
// @Router /users/admin/list [get]
func (h *UserHandler) list(c *gin.Context) {
	var role *models.Role
	if raw := c.Query("role"); raw != "" {
		parsed, err := models.ParseRole(raw)
		if err != nil {
			middleware.HandleError(c, err)
			return
		}
		role = &parsed
	}

	users, err := h.service.ListUsers(c.Request.Context(), role)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": users})
}
