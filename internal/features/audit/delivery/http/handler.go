package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"atmwater-backend/internal/common/middleware"
	"atmwater-backend/internal/features/audit/service"
	permmodels "atmwater-backend/internal/features/permission/models"
	permservice "atmwater-backend/internal/features/permission/service"
)

type AuditHandler struct {
	service     service.AuditService
	permissions permservice.PermissionService
}

func NewAuditHandler(service service.AuditService, permissions permservice.PermissionService) *AuditHandler {
	return &AuditHandler{service: service, permissions: permissions}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, protect gin.HandlerFunc) {
	logs := router.Group("/audit-logs")
	logs.Use(protect, middleware.CheckPermission(h.permissions, permmodels.FuncViewLogs))
	{
		logs.GET("", h.list)
	}
}

// @Summary List audit logs
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param module query string false "Filter by module"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.ListResult
// @Router /audit-logs [get]
func (h *AuditHandler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.service.List(c.Request.Context(), c.Query("module"), page, limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
