package models

import (
	"time"

	apperrors "atmwater-backend/internal/common/errors"
	usermodels "atmwater-backend/internal/features/user/models"
)

// ApplicationType is the role a user applies to be promoted to.
type ApplicationType string

const (
	TypeSteward    ApplicationType = "Steward"
	TypeRP         ApplicationType = "RP"
	TypeSuperAdmin ApplicationType = "Super-Admin"
)

// ParseType validates an application type string.
func ParseType(s string) (ApplicationType, error) {
	switch ApplicationType(s) {
	case TypeSteward, TypeRP, TypeSuperAdmin:
		return ApplicationType(s), nil
	}
	return "", apperrors.NewValidationError("type", "invalid application type")
}

// TargetRole is the role granted when an application of this type is approved.
func (t ApplicationType) TargetRole() usermodels.Role {
	switch t {
	case TypeSteward:
		return usermodels.RoleSteward
	case TypeRP:
		return usermodels.RoleRP
	case TypeSuperAdmin:
		return usermodels.RoleSuperAdmin
	}
	return ""
}

// ApprovalTrack identifies the reviewer track an application is routed to.
type ApprovalTrack string

const (
	TrackBusiness   ApprovalTrack = "business"
	TrackGM         ApprovalTrack = "gm"
	TrackSuperAdmin ApprovalTrack = "superAdmin"
)

// Track routes each application type to exactly one reviewer track.
func (t ApplicationType) Track() ApprovalTrack {
	switch t {
	case TypeSteward:
		return TrackBusiness
	case TypeRP:
		return TrackGM
	case TypeSuperAdmin:
		return TrackSuperAdmin
	}
	return ""
}

type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "Pending"
	StatusReviewing ApplicationStatus = "Reviewing"
	StatusApproved  ApplicationStatus = "Approved"
	StatusRejected  ApplicationStatus = "Rejected"
)

// Open reports whether the application still awaits a decision.
func (s ApplicationStatus) Open() bool {
	return s == StatusPending || s == StatusReviewing
}

// Approval is one reviewer's recorded decision on a track.
type Approval struct {
	Status     ApplicationStatus `json:"status"`
	ReviewerID string            `json:"reviewerId"`
	Comment    string            `json:"comment,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Documents are the applicant's supporting materials.
type Documents struct {
	IDCardURL          string `json:"idCardUrl,omitempty"`
	SalaryProofURL     string `json:"salaryProofUrl,omitempty"`
	BusinessLicenseURL string `json:"businessLicenseUrl,omitempty"`
	AdditionalInfo     string `json:"additionalInfo,omitempty"`
}

// Application is a promotion request. Applications are never deleted; the
// history is append-only.
type Application struct {
	ID              string                     `json:"id"`
	ApplicantID     string                     `json:"applicantId"`
	Type            ApplicationType            `json:"type"`
	Status          ApplicationStatus          `json:"status"`
	Documents       Documents                  `json:"documents"`
	Approvals       map[ApprovalTrack]Approval `json:"approvals"`
	AssessmentNotes string                     `json:"assessmentNotes,omitempty"`
	RejectionReason string                     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
}

// SubmitRequest is the application submission payload.
type SubmitRequest struct {
	Type      string    `json:"type" binding:"required"`
	Documents Documents `json:"documents"`
}

// ReviewRequest is a reviewer's decision payload. A status other than
// Approved/Rejected moves the application to Reviewing.
type ReviewRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

// ListFilter narrows admin application listings.
type ListFilter struct {
	Type   *ApplicationType
	Status *ApplicationStatus
}
