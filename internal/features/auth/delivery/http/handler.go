package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/middleware"
	"atmwater-backend/internal/features/auth/models"
	"atmwater-backend/internal/features/auth/service"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, protect gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		auth.POST("/request-otp", h.requestOTP)
		auth.POST("/verify-otp", h.verifyOTP)
		auth.POST("/login-password", h.loginPassword)
	}

	protected := router.Group("/auth")
	protected.Use(protect)
	{
		protected.POST("/set-password", h.setPassword)
	}
}

// @Summary Request a login OTP
// @Description Sends a one-time password over WhatsApp. Unknown phone numbers are registered as Customers. Throttled per phone number.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.RequestOTPPayload true "Phone number and optional referral code"
// @Success 200 {object} models.OTPResponse
// @Failure 400 {object} map[string]interface{} "Invalid phone number"
// @Failure 429 {object} map[string]interface{} "Too many requests"
// @Router /auth/request-otp [post]
func (h *AuthHandler) requestOTP(c *gin.Context) {
	var payload models.RequestOTPPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	resp, err := h.service.RequestOTP(c.Request.Context(), payload)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// @Summary Verify an OTP
// @Description Exchanges a delivered code for a session token. Codes are single-use.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.VerifyOTPPayload true "Phone number and code"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} map[string]interface{} "Invalid or expired OTP"
// @Router /auth/verify-otp [post]
func (h *AuthHandler) verifyOTP(c *gin.Context) {
	var payload models.VerifyOTPPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	resp, err := h.service.VerifyOTP(c.Request.Context(), payload)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// @Summary Log in with a password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.PasswordLoginPayload true "Phone number and password"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Router /auth/login-password [post]
func (h *AuthHandler) loginPassword(c *gin.Context) {
	var payload models.PasswordLoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	resp, err := h.service.LoginWithPassword(c.Request.Context(), payload)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// @Summary Set a password for the current user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SetPasswordPayload true "New password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Password too weak"
// @Router /auth/set-password [post]
func (h *AuthHandler) setPassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.HandleError(c, apperrors.NewUnauthorizedError("Not authorized"))
		return
	}

	var payload models.SetPasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		middleware.HandleError(c, apperrors.NewValidationError("payload", err.Error()))
		return
	}

	if err := h.service.SetPassword(c.Request.Context(), user, payload.Password); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated"})
}
