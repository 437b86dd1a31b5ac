package models

import "time"

// WithdrawalStatus is the lifecycle state of a withdrawal request.
// Approved, Rejected and Paid are terminal except for Approved -> Paid.
type WithdrawalStatus string

const (
	StatusPending  WithdrawalStatus = "Pending"
	StatusApproved WithdrawalStatus = "Approved"
	StatusRejected WithdrawalStatus = "Rejected"
	StatusPaid     WithdrawalStatus = "Paid"
)

// BankDetails is the destination account for a payout.
type BankDetails struct {
	BankName      string `json:"bankName" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required"`
	AccountHolder string `json:"accountHolder" binding:"required"`
}

// Withdrawal is a payout request. The amount is held from the user's balance
// at request time and refunded exactly once if the request is rejected.
type Withdrawal struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Amount          int64            `json:"amount" example:"150000"`
	Status          WithdrawalStatus `json:"status"`
	BankDetails     BankDetails      `json:"bankDetails"`
	ReviewerID      string           `json:"reviewerId,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	PaidAt          *time.Time       `json:"paidAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// RequestPayload is the withdrawal submission body.
type RequestPayload struct {
	Amount      int64       `json:"amount" binding:"required"`
	BankDetails BankDetails `json:"bankDetails" binding:"required"`
}

// RejectPayload carries the reviewer's reason for declining a payout.
type RejectPayload struct {
	Reason string `json:"reason" binding:"required"`
}

// ListFilter narrows admin withdrawal listings.
type ListFilter struct {
	Status *WithdrawalStatus
	UserID *string
}
