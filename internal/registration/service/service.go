package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	projectmodels "bto/internal/project/models"
	"bto/internal/registration/models"
	dErrors "bto/pkg/domain-errors"
	"bto/pkg/platform/audit"
	"bto/pkg/platform/sentinel"
	"bto/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	ListByOfficer(ctx context.Context, nric string) ([]*models.Registration, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Registration, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error)
}

// ProjectDirectory is the slice of the project service registrations need.
type ProjectDirectory interface {
	GetProject(ctx context.Context, id string) (*projectmodels.Project, error)
	AssignOfficer(ctx context.Context, id string, officer projectmodels.User) (*projectmodels.Project, error)
	RemoveOfficer(ctx context.Context, id string, nric string) (*projectmodels.Project, error)
}

// Service manages officer registrations. Approval assigns the officer to the
// project roster; the registration only becomes APPROVED if that succeeds.
type Service struct {
	store          Store
	projects       ProjectDirectory
	logger         *slog.Logger
	auditPublisher audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, projects ProjectDirectory, opts ...Option) *Service {
	s := &Service{store: store, projects: projects, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register records a pending request by officer to handle projectID.
func (s *Service) Register(ctx context.Context, officer projectmodels.User, projectID string) (*models.Registration, error) {
	officer.NRIC = strings.ToUpper(strings.TrimSpace(officer.NRIC))
	if officer.NRIC == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "officer nric is required")
	}
	if !officer.IsOfficer() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only officers can register to handle a project")
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Manager().SameIdentity(officer) {
		return nil, dErrors.New(dErrors.CodeConflict, "the manager in charge cannot register as an officer")
	}
	if project.HasOfficer(officer) {
		return nil, dErrors.Wrap(projectmodels.ErrAlreadyAssigned, dErrors.CodeConflict, "officer already assigned to this project")
	}

	r, err := models.NewRegistration(uuid.New(), officer, project.ID(), requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "officer already has an open registration for this project")
		}
		return nil, wrapRegistrationErr(err, "create registration")
	}

	s.logAudit(ctx, audit.EventRegistrationSubmitted, r)
	return r, nil
}

// Approve assigns the officer to the project and marks the registration
// APPROVED. A full roster or duplicate assignment leaves it PENDING.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "registration id is required")
	}

	now := requestcontext.Now(ctx)
	var assigned *models.Registration
	r, err := s.store.Execute(ctx, id,
		func(r *models.Registration) error {
			if err := r.CanDecide(); err != nil {
				return dErrors.Wrap(err, dErrors.CodeConflict, "registration already decided")
			}
			if _, err := s.projects.AssignOfficer(ctx, r.ProjectID, r.Officer); err != nil {
				return err
			}
			assigned = r
			return nil
		},
		func(r *models.Registration) { r.ApplyApproval(now) },
	)
	if err != nil {
		if assigned != nil {
			s.releaseAssignment(ctx, assigned)
		}
		return nil, wrapRegistrationErr(err, "approve registration")
	}

	s.logAudit(ctx, audit.EventRegistrationApproved, r)
	return r, nil
}

// releaseAssignment undoes a roster assignment whose approval was not stored.
func (s *Service) releaseAssignment(ctx context.Context, r *models.Registration) {
	if _, err := s.projects.RemoveOfficer(ctx, r.ProjectID, r.Officer.NRIC); err != nil {
		s.logger.ErrorContext(ctx, "failed to release officer after approval failure",
			"request_id", requestcontext.RequestID(ctx),
			"registration_id", r.ID.String(),
			"project_id", r.ProjectID,
			"error", err,
		)
	}
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "registration id is required")
	}

	now := requestcontext.Now(ctx)
	r, err := s.store.Execute(ctx, id,
		func(r *models.Registration) error {
			if err := r.CanDecide(); err != nil {
				return dErrors.Wrap(err, dErrors.CodeConflict, "registration already decided")
			}
			return nil
		},
		func(r *models.Registration) { r.ApplyRejection(now) },
	)
	if err != nil {
		return nil, wrapRegistrationErr(err, "reject registration")
	}

	s.logAudit(ctx, audit.EventRegistrationRejected, r)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRegistrationErr(err, "load registration")
	}
	return r, nil
}

// OfficerRegistrations returns every registration held by candidate's NRIC,
// whatever role candidate currently carries.
func (s *Service) OfficerRegistrations(ctx context.Context, candidate projectmodels.User) ([]*models.Registration, error) {
	nric := strings.ToUpper(strings.TrimSpace(candidate.NRIC))
	if nric == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "nric is required")
	}
	out, err := s.store.ListByOfficer(ctx, nric)
	if err != nil {
		return nil, wrapRegistrationErr(err, "list registrations")
	}
	return out, nil
}

func (s *Service) ProjectRegistrations(ctx context.Context, projectID string) ([]*models.Registration, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	out, err := s.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, wrapRegistrationErr(err, "list registrations")
	}
	return out, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, r *models.Registration) {
	audit.LogAudit(ctx, s.logger, s.auditPublisher, event,
		"project_id", r.ProjectID,
		"registration_id", r.ID.String(),
		"officer_nric", r.Officer.NRIC,
		"decision", string(r.Status),
	)
}

func wrapRegistrationErr(err error, action string) error {
	if _, ok := dErrors.CodeOf(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "registration already exists")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, action+": request cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}
