package models

import "time"

// User represents a member of the franchise network.
// @Description Franchise network user
type User struct {
	ID           string    `json:"id" example:"7b0d1f6e-4a8e-4a3a-9f57-1f2a43a1c001"`
	PhoneNumber  string    `json:"phoneNumber" example:"+6281234567890"`
	Name         string    `json:"name" example:"Budi Santoso"`
	Email        string    `json:"email,omitempty" example:"budi@example.com"`
	Role         Role      `json:"role" example:"Customer"`
	Balance      int64     `json:"balance" example:"200000"`
	ReferralCode string    `json:"referralCode" example:"A1B2C3"`
	ManagedBy    *string   `json:"managedBy,omitempty"`
	PasswordHash string    `json:"-"`
	LastLogin    time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserResponse is the public view of a user returned by the API.
type UserResponse struct {
	ID           string  `json:"id"`
	PhoneNumber  string  `json:"phoneNumber"`
	Name         string  `json:"name"`
	Role         Role    `json:"role"`
	Balance      int64   `json:"balance"`
	ReferralCode string  `json:"referralCode"`
	ManagedBy    *string `json:"managedBy,omitempty"`
}

// ToResponse strips private fields.
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		PhoneNumber:  u.PhoneNumber,
		Name:         u.Name,
		Role:         u.Role,
		Balance:      u.Balance,
		ReferralCode: u.ReferralCode,
		ManagedBy:    u.ManagedBy,
	}
}
