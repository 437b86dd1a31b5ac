package models

import usermodels "atmwater-backend/internal/features/user/models"

// RequestOTPPayload starts (or continues) a phone-based login. Unknown phone
// numbers are auto-registered as Customers.
type RequestOTPPayload struct {
	PhoneNumber  string `json:"phoneNumber" binding:"required"`
	Name         string `json:"name"`
	ReferralCode string `json:"referralCode"`
}

// OTPResponse tells the client where the code went and how long it lives.
type OTPResponse struct {
	Channel   string `json:"channel" example:"whatsapp"`
	ExpiresIn int    `json:"expiresIn" example:"300"`
}

// VerifyOTPPayload exchanges a delivered code for a session token.
type VerifyOTPPayload struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Code        string `json:"otp" binding:"required"`
}

// PasswordLoginPayload is the password alternative to the OTP flow.
type PasswordLoginPayload struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// SetPasswordPayload sets or replaces the caller's password.
type SetPasswordPayload struct {
	Password string `json:"password" binding:"required"`
}

// AuthResponse is a successful login.
type AuthResponse struct {
	Token string                   `json:"token"`
	User  *usermodels.UserResponse `json:"user"`
}
