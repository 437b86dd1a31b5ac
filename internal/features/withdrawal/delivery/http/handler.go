package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/middleware"
	permmodels "atmwater-backend/internal/features/permission/models"
	permservice "atmwater-backend/internal/features/permission/service"
	"atmwater-backend/internal/features/withdrawal/models"
	"atmwater-backend/internal/features/withdrawal/service"
)

type WithdrawalHandler struct {
	service     service.WithdrawalService
	permissions permservice.PermissionService
}

func NewWithdrawalHandler(service service.WithdrawalService, permissions permservice.PermissionService) *WithdrawalHandler {
	return &WithdrawalHandler{service: service, permissions: permissions}
}

func (h *WithdrawalHandler) RegisterRoutes(router *gin.RouterGroup, protect gin.HandlerFunc) {
	withdrawals := router.Group("/withdrawals")
	withdrawals.Use(protect)
	{
		withdrawals.POST("/request", h.request)
		withdrawals.GET("/history", h.history)
	}

	admin := router.Group("/withdrawals/admin")
	admin.Use(protect, middleware.CheckPermission(h.permissions, permmodels.FuncApproveWithdrawals))
	{
		admin.GET("/list", h.list)
		admin.PUT("/approve/:id", h.approve)
		admin.PUT("/reject/:id", h.reject)
		admin.PUT("/paid/:id", h.markPaid)
	}
}

// @Summary Request a withdrawal
// @Description Places a payout request. The amount is held from the balance immediately.
// @Tags withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.RequestPayload true "Amount and bank details"
// @Success 201 {object} models.Withdrawal
// @Failure 400 {object} map[string]interface{} "Below minimum or insufficient balance"
// @Router /withdrawals/request [post]
func (h *WithdrawalHandler) request(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	var payload models.RequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	w, err := h.service.Request(c.Request.Context(), user, payload)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": w})
}

// @Summary My withdrawal history
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Withdrawal
// @Router /withdrawals/history [get]
func (h *WithdrawalHandler) history(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	history, err := h.service.History(c.Request.Context(), user)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

// @Summary List withdrawal requests
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Withdrawal
// @Router /withdrawals/admin/list [get]
func (h *WithdrawalHandler) list(c *gin.Context) {
	var filter models.ListFilter
	if raw := c.Query("status"); raw != "" {
		status := models.WithdrawalStatus(raw)
		filter.Status = &status
	}

	withdrawals, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": withdrawals})
}

// @Summary Approve a withdrawal
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Withdrawal id"
// @Success 200 {object} models.Withdrawal
// @Failure 409 {object} map[string]interface{} "Withdrawal already decided"
// @Router /withdrawals/admin/approve/{id} [put]
func (h *WithdrawalHandler) approve(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	w, err := h.service.Approve(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": w})
}

// @Summary Reject a withdrawal
// @Description Declines a pending withdrawal and refunds the held amount.
// @Tags withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Withdrawal id"
// @Param payload body models.RejectPayload true "Rejection reason"
// @Success 200 {object} models.Withdrawal
// @Failure 409 {object} map[string]interface{} "Withdrawal already decided"
// @Router /withdrawals/admin/reject/{id} [put]
func (h *WithdrawalHandler) reject(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	var payload models.RejectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	w, err := h.service.Reject(c.Request.Context(), user, c.Param("id"), payload.Reason)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": w})
}

// @Summary Mark an approved withdrawal as paid
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Withdrawal id"
// @Success 200 {object} models.Withdrawal
// @Failure 409 {object} map[string]interface{} "Withdrawal is not approved"
// @Router /withdrawals/admin/paid/{id} [put]
func (h *WithdrawalHandler) markPaid(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	w, err := h.service.MarkPaid(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": w})
}
