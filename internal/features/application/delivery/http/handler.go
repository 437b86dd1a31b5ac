package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/middleware"
	"atmwater-backend/internal/features/application/models"
	"atmwater-backend/internal/features/application/service"
	usermodels "atmwater-backend/internal/features/user/models"
)

type ApplicationHandler struct {
	service service.ApplicationService
}

func NewApplicationHandler(service service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func (h *ApplicationHandler) RegisterRoutes(router *gin.RouterGroup, protect gin.HandlerFunc) {
	apps := router.Group("/applications")
	apps.Use(protect)
	{
		apps.POST("/apply", h.apply)
		apps.GET("/my-status", h.myStatus)
	}

	admin := router.Group("/applications/admin")
	admin.Use(protect, middleware.Authorize(
		usermodels.RoleBusiness, usermodels.RoleGM, usermodels.RoleSuperAdmin,
	))
	{
		admin.GET("/list", h.list)
		admin.GET("/pending-count", h.pendingCount)
		admin.PUT("/:id/review", h.review)
	}
}

// @Summary Apply for a role
// @Description Files a promotion application. One open application per type per user.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SubmitRequest true "Application type and documents"
// @Success 201 {object} models.Application
// @Failure 409 {object} map[string]interface{} "Open application already exists"
// @Router /applications/apply [post]
func (h *ApplicationHandler) apply(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	var payload models.SubmitRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	app, err := h.service.Submit(c.Request.Context(), user, payload)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": app})
}

// @Summary My application history
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Application
// @Router /applications/my-status [get]
func (h *ApplicationHandler) myStatus(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	apps, err := h.service.MyApplications(c.Request.Context(), user)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": apps})
}

// @Summary List applications
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param type query string false "Filter by application type"
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Application
// @Router /applications/admin/list [get]
func (h *ApplicationHandler) list(c *gin.Context) {
	var filter models.ListFilter
	if raw := c.Query("type"); raw != "" {
		appType, err := models.ParseType(raw)
		if err != nil {
			middleware.HandleError(c, err)
			return
		}
		filter.Type = &appType
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ApplicationStatus(raw)
		filter.Status = &status
	}

	apps, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": apps})
}

// @Summary Count applications awaiting my review
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /applications/admin/pending-count [get]
func (h *ApplicationHandler) pendingCount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	count, err := h.service.PendingCount(c.Request.Context(), user)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"count": count}})
}

// @Summary Review an application
// @Description Records a reviewer decision. A single approval or rejection on the routed track decides the application.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application id"
// @Param payload body models.ReviewRequest true "Decision and comment"
// @Success 200 {object} models.Application
// @Failure 403 {object} map[string]interface{} "Not the reviewer for this track"
// @Failure 409 {object} map[string]interface{} "Application already decided"
// @Router /applications/admin/{id}/review [put]
func (h *ApplicationHandler) review(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	var payload models.ReviewRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	app, err := h.service.Review(c.Request.Context(), user, c.Param("id"), payload)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": app})
}
