package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/middleware"
	auditmodels "atmwater-backend/internal/features/audit/models"
	auditservice "atmwater-backend/internal/features/audit/service"
	"atmwater-backend/internal/features/permission/models"
	"atmwater-backend/internal/features/permission/service"
	usermodels "atmwater-backend/internal/features/user/models"
)

type PermissionHandler struct {
	service service.PermissionService
	audit   auditservice.AuditService
}

func NewPermissionHandler(service service.PermissionService, audit auditservice.AuditService) *PermissionHandler {
	return &PermissionHandler{service: service, audit: audit}
}

// RegisterRoutes mounts the permission-matrix admin endpoints. Editing the
// matrix is reserved for the Super-Admin regardless of matrix contents.
func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup, protect gin.HandlerFunc) {
	admin := router.Group("/admin/permissions")
	admin.Use(protect, middleware.Authorize(usermodels.RoleSuperAdmin))
	{
		admin.GET("", h.list)
		admin.POST("", h.update)
	}
}

// @Summary List the permission matrix
// @Tags permissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Permission
// @Failure 403 {object} map[string]interface{} "Super-Admin only"
// @Router /admin/permissions [get]
func (h *PermissionHandler) list(c *gin.Context) {
	permissions, err := h.service.List(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": permissions})
}

// @Summary Update the permission matrix
// @Description Replaces the grants for the submitted function keys. Changes take effect on the next permission check.
// @Tags permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateRequest true "Matrix entries"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Unknown function key or role"
// @Failure 403 {object} map[string]interface{} "Super-Admin only"
// @Router /admin/permissions [post]
func (h *PermissionHandler) update(c *gin.Context) {
	var payload models.UpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	actor, _ := middleware.CurrentUser(c)

	if err := h.service.Update(c.Request.Context(), payload.Matrix); err != nil {
		h.recordUpdate(c, actor, payload.Matrix, auditmodels.StatusFailed)
		middleware.HandleError(c, err)
		return
	}

	h.recordUpdate(c, actor, payload.Matrix, auditmodels.StatusSuccess)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Permissions updated"})
}

func (h *PermissionHandler) recordUpdate(c *gin.Context, actor *usermodels.User, matrix []models.MatrixEntry, status auditmodels.LogStatus) {
	keys := make([]string, 0, len(matrix))
	for _, entry := range matrix {
		keys = append(keys, entry.FunctionKey)
	}
	h.audit.Record(c.Request.Context(), auditservice.Entry{
		Actor:     actor,
		Module:    auditmodels.ModulePermissions,
		Action:    "permission.update",
		Details:   map[string]interface{}{"functionKeys": keys},
		IPAddress: c.ClientIP(),
		Status:    status,
	})
}
