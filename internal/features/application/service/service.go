package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/validation"
	auditmodels "atmwater-backend/internal/features/audit/models"
	auditservice "atmwater-backend/internal/features/audit/service"
	"atmwater-backend/internal/features/application/models"
	"atmwater-backend/internal/features/application/repository"
	usermodels "atmwater-backend/internal/features/user/models"
	userrepo "atmwater-backend/internal/features/user/repository"
)

type ApplicationService interface {
	// Submit files a promotion application for the applicant. A user may
	// hold at most one open application per type.
	Submit(ctx context.Context, applicant *usermodels.User, req models.SubmitRequest) (*models.Application, error)

	// Review records a single reviewer decision. One recorded approval or
	// rejection on the routed track decides the application outright; on
	// approval the applicant's role is upgraded.
	Review(ctx context.Context, reviewer *usermodels.User, id string, req models.ReviewRequest) (*models.Application, error)

	MyApplications(ctx context.Context, applicant *usermodels.User) ([]*models.Application, error)

	List(ctx context.Context, filter models.ListFilter) ([]*models.Application, error)

	// PendingCount returns the number of open applications awaiting the
	// reviewer, scoped to the track their role reviews.
	PendingCount(ctx context.Context, reviewer *usermodels.User) (int, error)
}

type applicationService struct {
	repo  repository.ApplicationRepository
	users userrepo.UserRepository
	audit auditservice.AuditService
}

func NewApplicationService(repo repository.ApplicationRepository, users userrepo.UserRepository, audit auditservice.AuditService) ApplicationService {
	return &applicationService{repo: repo, users: users, audit: audit}
}

func (s *applicationService) Submit(ctx context.Context, applicant *usermodels.User, req models.SubmitRequest) (*models.Application, error) {
	appType, err := models.ParseType(req.Type)
	if err != nil {
		return nil, err
	}

	if applicant.Role == appType.TargetRole() {
		return nil, apperrors.NewValidationError("type", "you already hold this role")
	}
	if appType == models.TypeSuperAdmin && applicant.Role != usermodels.RoleRP {
		return nil, apperrors.Newf(apperrors.ErrCodeForbidden,
			"Only an RP may apply for the Super-Admin role")
	}

	open, err := s.repo.HasOpen(ctx, applicant.ID, appType)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, apperrors.NewConflictError("application", "you already have a pending application")
	}

	app := &models.Application{
		ID:          uuid.NewString(),
		ApplicantID: applicant.ID,
		Type:        appType,
		Status:      models.StatusPending,
		Documents:   req.Documents,
		Approvals:   make(map[models.ApprovalTrack]models.Approval),
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditservice.Entry{
		Actor:  applicant,
		Module: auditmodels.ModuleApplications,
		Action: "application.submit",
		Details: map[string]interface{}{
			"applicationId": app.ID,
			"type":          string(app.Type),
		},
		Status: auditmodels.StatusSuccess,
	})

	log.Info().
		Str("application_id", app.ID).
		Str("applicant_id", applicant.ID).
		Str("type", string(appType)).
		Msg("application submitted")

	return app, nil
}

func (s *applicationService) Review(ctx context.Context, reviewer *usermodels.User, id string, req models.ReviewRequest) (*models.Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !app.Status.Open() {
		return nil, apperrors.NewConflictError("application", "application has already been decided")
	}

	track := app.Type.Track()
	if !canReview(reviewer.Role, track) {
		return nil, apperrors.Newf(apperrors.ErrCodeForbidden,
			"User role [%s] is not authorized to review this application", reviewer.Role)
	}

	decision, err := parseDecision(req.Status)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateNotes(req.Comment); err != nil {
		return nil, apperrors.NewValidationError("comment", err.Error())
	}

	app.Approvals[track] = models.Approval{
		Status:     decision,
		ReviewerID: reviewer.ID,
		Comment:    req.Comment,
		UpdatedAt:  time.Now(),
	}

	switch decision {
	case models.StatusApproved:
		if err := s.approve(ctx, app); err != nil {
			s.recordReview(ctx, reviewer, app, decision, auditmodels.StatusFailed)
			return nil, err
		}
	case models.StatusRejected:
		app.Status = models.StatusRejected
		app.RejectionReason = req.Comment
	default:
		app.Status = models.StatusReviewing
	}
	app.AssessmentNotes = req.Comment

	if err := s.repo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.recordReview(ctx, reviewer, app, decision, auditmodels.StatusSuccess)

	log.Info().
		Str("application_id", app.ID).
		Str("reviewer_id", reviewer.ID).
		Str("decision", string(decision)).
		Msg("application reviewed")

	return app, nil
}

// approve upgrades the applicant. Singleton roles (Admin, Super-Admin) may
// only have one holder at a time; approving the current holder is a no-op
// rather than a conflict.
func (s *applicationService) approve(ctx context.Context, app *models.Application) error {
	target := app.Type.TargetRole()

	if target.Singleton() {
		holder, err := s.users.FindByRole(ctx, target)
		if err != nil && !apperrors.IsCode(err, apperrors.ErrCodeUserNotFound) {
			return err
		}
		if holder != nil && holder.ID != app.ApplicantID {
			return apperrors.NewConflictError("role",
				"another user already holds this role")
		}
	}

	if err := s.users.UpdateRole(ctx, app.ApplicantID, target); err != nil {
		return err
	}
	app.Status = models.StatusApproved
	return nil
}

func (s *applicationService) MyApplications(ctx context.Context, applicant *usermodels.User) ([]*models.Application, error) {
	return s.repo.ListByApplicant(ctx, applicant.ID)
}

func (s *applicationService) List(ctx context.Context, filter models.ListFilter) ([]*models.Application, error) {
	return s.repo.List(ctx, filter)
}

func (s *applicationService) PendingCount(ctx context.Context, reviewer *usermodels.User) (int, error) {
	var types []models.ApplicationType
	switch reviewer.Role {
	case usermodels.RoleSuperAdmin:
		types = nil // all open applications
	case usermodels.RoleGM:
		types = []models.ApplicationType{models.TypeRP}
	case usermodels.RoleBusiness:
		types = []models.ApplicationType{models.TypeSteward}
	default:
		return 0, apperrors.Newf(apperrors.ErrCodeForbidden,
			"User role [%s] is not authorized to review applications", reviewer.Role)
	}
	return s.repo.CountOpen(ctx, types)
}

func (s *applicationService) recordReview(ctx context.Context, reviewer *usermodels.User, app *models.Application, decision models.ApplicationStatus, status auditmodels.LogStatus) {
	s.audit.Record(ctx, auditservice.Entry{
		Actor:  reviewer,
		Module: auditmodels.ModuleApplications,
		Action: "application.review",
		Details: map[string]interface{}{
			"applicationId": app.ID,
			"applicantId":   app.ApplicantID,
			"type":          string(app.Type),
			"decision":      string(decision),
		},
		Status: status,
	})
}

// canReview maps reviewer roles to the track they decide. Super-Admin reviews
// everything; the superAdmin track accepts nobody else.
func canReview(role usermodels.Role, track models.ApprovalTrack) bool {
	if role == usermodels.RoleSuperAdmin {
		return true
	}
	switch track {
	case models.TrackBusiness:
		return role == usermodels.RoleBusiness
	case models.TrackGM:
		return role == usermodels.RoleGM
	}
	return false
}

func parseDecision(s string) (models.ApplicationStatus, error) {
	switch models.ApplicationStatus(s) {
	case models.StatusApproved, models.StatusRejected, models.StatusReviewing:
		return models.ApplicationStatus(s), nil
	}
	return "", apperrors.NewValidationError("status", "must be Reviewing, Approved or Rejected")
}
