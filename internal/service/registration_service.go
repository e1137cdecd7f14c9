package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/identity"
	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
)

type registrationRepository interface {
	Create(ctx context.Context, req *models.PendingRequest) error
	FindByID(ctx context.Context, id string) (*models.PendingRequest, error)
	List(ctx context.Context, filter models.PendingRequestFilter) ([]models.PendingRequest, int, error)
	MarkApproved(ctx context.Context, id, approvedBy string, ts time.Time) (bool, error)
	MarkRejected(ctx context.Context, id string) (bool, error)
}

type profileCreator interface {
	Create(ctx context.Context, profile *models.Profile) error
}

// SubmitRegistrationRequest is the self-registration payload. The shape is
// discriminated by role: students carry a class, teachers a subject, never
// both.
type SubmitRegistrationRequest struct {
	Name    string          `json:"name" validate:"required"`
	Email   string          `json:"email" validate:"required,email"`
	Role    models.UserRole `json:"role" validate:"required,oneof=student teacher"`
	Class   string          `json:"class" validate:"required_if=Role student,excluded_if=Role teacher"`
	Subject string          `json:"subject" validate:"required_if=Role teacher,excluded_if=Role student"`
}

// RegistrationConfig tunes provisioning behaviour.
type RegistrationConfig struct {
	PasswordLength int
}

// RegistrationService owns the registration-approval workflow: intake of
// self-submitted requests, the admin decision surface, and provisioning of
// approved requests into an identity + profile pair.
type RegistrationService struct {
	repo      registrationRepository
	profiles  profileCreator
	idp       identity.Provider
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    RegistrationConfig
}

// NewRegistrationService constructs a RegistrationService. metrics may be nil.
func NewRegistrationService(repo registrationRepository, profiles profileCreator, idp identity.Provider, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config RegistrationConfig) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.PasswordLength <= 0 {
		config.PasswordLength = 16
	}
	return &RegistrationService{repo: repo, profiles: profiles, idp: idp, validator: validate, logger: logger, metrics: metrics, config: config}
}

// Submit records an applicant's request as pending. No uniqueness check
// against existing profiles or identities happens here; duplicates surface
// at approval time through identity reuse.
func (s *RegistrationService) Submit(ctx context.Context, req SubmitRegistrationRequest) (*models.PendingRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	pending := &models.PendingRequest{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Role:  req.Role,
	}
	switch req.Role {
	case models.RoleStudent:
		class := req.Class
		pending.Class = &class
	case models.RoleTeacher:
		subject := req.Subject
		pending.Subject = &subject
	}

	if err := s.repo.Create(ctx, pending); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store registration request")
	}

	s.logger.Info("registration request submitted",
		zap.String("request_id", pending.ID),
		zap.String("role", string(pending.Role)),
	)
	return pending, nil
}

// List returns registration requests, newest first. The repository query
// already excludes admin-role rows.
func (s *RegistrationService) List(ctx context.Context, filter models.PendingRequestFilter) ([]models.PendingRequest, *models.Pagination, error) {
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registration requests")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return requests, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Approve provisions the request into an identity + profile pair and marks
// it approved. The status transition is the commit marker: it only happens
// after provisioning succeeded, so a failed approval leaves the request
// pending and retryable.
func (s *RegistrationService) Approve(ctx context.Context, requestID, actorID string) (*models.ApprovalResult, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration request")
	}

	switch req.Status {
	case models.RequestStatusRejected:
		return nil, appErrors.Clone(appErrors.ErrConflict, "request was already rejected")
	case models.RequestStatusApproved:
		// Repeated approval re-confirms the existing identity instead of
		// creating anything.
		existing, err := s.idp.FindIdentityByEmail(ctx, req.Email)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up identity")
		}
		if existing == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request approved but identity is missing")
		}
		return &models.ApprovalResult{Request: req, IdentityID: existing.ID, IdentityReused: true}, nil
	}

	result, err := s.provision(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transitioned, err := s.repo.MarkApproved(ctx, req.ID, actorID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark request approved")
	}
	if !transitioned {
		// A concurrent decision won the guarded update. The provisioned
		// identity stays in place; the request keeps the earlier outcome.
		return nil, appErrors.Clone(appErrors.ErrConflict, "request was decided concurrently")
	}

	req.Status = models.RequestStatusApproved
	req.ApprovedAt = &now
	req.ApprovedBy = &actorID
	result.Request = req

	s.logger.Info("registration request approved",
		zap.String("request_id", req.ID),
		zap.String("identity_id", result.IdentityID),
		zap.Bool("identity_reused", result.IdentityReused),
	)
	return result, nil
}

// Reject marks the request rejected. Rejecting an already rejected request
// is a no-op; rejecting an approved one is a conflict.
func (s *RegistrationService) Reject(ctx context.Context, requestID string) error {
	transitioned, err := s.repo.MarkRejected(ctx, requestID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark request rejected")
	}
	if transitioned {
		s.logger.Info("registration request rejected", zap.String("request_id", requestID))
		return nil
	}

	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration request")
	}
	if req.Status == models.RequestStatusApproved {
		return appErrors.Clone(appErrors.ErrConflict, "request was already approved")
	}
	return nil
}

// provision executes the three-step sequence: check-existing, create
// credential, create profile. There is no transaction spanning the identity
// store and the profile table, so a profile failure compensates by deleting
// a credential this call created. A pre-existing credential is never
// deleted.
func (s *RegistrationService) provision(ctx context.Context, req *models.PendingRequest) (*models.ApprovalResult, error) {
	existing, err := s.idp.FindIdentityByEmail(ctx, req.Email)
	if err != nil {
		s.metrics.RecordProvisionOutcome("credential_error")
		return nil, appErrors.Wrap(err, appErrors.ErrProvisionCredential.Code, appErrors.ErrProvisionCredential.Status, "failed to check for existing identity")
	}

	var (
		id       *identity.Identity
		password string
		reused   bool
	)
	if existing != nil {
		id = existing
		reused = true
	} else {
		password, err = identity.GeneratePassword(s.config.PasswordLength)
		if err != nil {
			s.metrics.RecordProvisionOutcome("credential_error")
			return nil, appErrors.Wrap(err, appErrors.ErrProvisionCredential.Code, appErrors.ErrProvisionCredential.Status, "failed to generate credential")
		}

		id, err = s.idp.CreateIdentity(ctx, req.Email, password, identity.Metadata{Name: req.Name, Role: string(req.Role)})
		if err != nil {
			s.metrics.RecordProvisionOutcome("credential_error")
			return nil, appErrors.Wrap(err, appErrors.ErrProvisionCredential.Code, appErrors.ErrProvisionCredential.Status, "failed to create identity")
		}
	}

	profile := &models.Profile{
		ID:      id.ID,
		Email:   req.Email,
		Name:    req.Name,
		Role:    req.Role,
		Class:   req.Class,
		Subject: req.Subject,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if !reused {
			if delErr := s.idp.DeleteIdentity(ctx, id.ID); delErr != nil {
				// The identity is now orphaned with no profile behind it.
				// Operators need this in the logs for manual cleanup.
				s.logger.Error("compensation failed, identity orphaned",
					zap.String("request_id", req.ID),
					zap.String("identity_id", id.ID),
					zap.Error(delErr),
				)
			}
		}
		s.metrics.RecordProvisionOutcome("profile_error")
		return nil, appErrors.Wrap(err, appErrors.ErrProvisionProfile.Code, appErrors.ErrProvisionProfile.Status, "failed to create profile")
	}

	if reused {
		s.metrics.RecordProvisionOutcome("reused")
	} else {
		s.metrics.RecordProvisionOutcome("created")
	}

	return &models.ApprovalResult{
		Profile:           profile,
		IdentityID:        id.ID,
		GeneratedPassword: password,
		IdentityReused:    reused,
	}, nil
}
