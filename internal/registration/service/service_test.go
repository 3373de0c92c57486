package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	projectmodels "bto/internal/project/models"
	projectservice "bto/internal/project/service"
	projectstore "bto/internal/project/store/project"
	"bto/internal/registration/models"
	"bto/internal/registration/store"
	dErrors "bto/pkg/domain-errors"
	"bto/pkg/platform/audit"
	auditpublisher "bto/pkg/platform/audit/publisher"
	auditmemory "bto/pkg/platform/audit/store/memory"
	"bto/pkg/requestcontext"
)

var (
	manager  = projectmodels.User{NRIC: "S1000000M", Name: "Mei", Age: 50, MaritalStatus: projectmodels.MaritalStatusMarried, Role: projectmodels.RoleManager}
	officerA = projectmodels.User{NRIC: "T2000000A", Name: "Ali", Age: 29, MaritalStatus: projectmodels.MaritalStatusSingle, Role: projectmodels.RoleOfficer}
	officerB = projectmodels.User{NRIC: "T2000000B", Name: "Bea", Age: 33, MaritalStatus: projectmodels.MaritalStatusMarried, Role: projectmodels.RoleOfficer}
	now      = time.Date(2025, 5, 10, 14, 0, 0, 0, time.UTC)
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	projects   *projectservice.Service
	store      *store.InMemory
	auditStore *auditmemory.InMemoryStore
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.projects = projectservice.New(projectstore.NewInMemory(), nil, projectservice.WithLogger(logger))
	s.store = store.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.service = New(s.store, s.projects,
		WithLogger(logger),
		WithAuditPublisher(auditpublisher.NewPublisher(s.auditStore)),
	)

	_, err := s.projects.CreateProject(s.ctx, projectservice.CreateProjectInput{
		ID: "P-1", Name: "Acacia", Units: map[projectmodels.FlatType]int{projectmodels.FlatTypeTwoRoom: 2},
		OpenDate: now, CloseDate: now.Add(24 * time.Hour), Manager: manager, OfficerSlots: 1,
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates a pending registration", func() {
		r, err := s.service.Register(s.ctx, officerA, "P-1")
		s.Require().NoError(err)
		s.Equal(projectmodels.RegistrationStatusPending, r.Status)
		s.True(r.CreatedAt.Equal(now))

		events, err := s.auditStore.ListBySubject(s.ctx, "P-1")
		s.Require().NoError(err)
		s.Equal(string(audit.EventRegistrationSubmitted), events[len(events)-1].Action)
	})

	s.Run("second open registration is a conflict", func() {
		_, err := s.service.Register(s.ctx, officerA, "P-1")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("applicants cannot register", func() {
		_, err := s.service.Register(s.ctx, officerB.As(projectmodels.RoleApplicant), "P-1")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown project", func() {
		_, err := s.service.Register(s.ctx, officerB, "P-404")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("manager in charge cannot register", func() {
		_, err := s.service.Register(s.ctx, manager.As(projectmodels.RoleOfficer), "P-1")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestApproveAssignsOfficer() {
	r, err := s.service.Register(s.ctx, officerA, "P-1")
	s.Require().NoError(err)

	approved, err := s.service.Approve(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(projectmodels.RegistrationStatusApproved, approved.Status)

	p, err := s.projects.GetProject(s.ctx, "P-1")
	s.Require().NoError(err)
	s.True(p.HasOfficer(officerA))
	s.Equal(0, p.AvailableOfficerSlots())

	_, err = s.service.Approve(s.ctx, r.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.ErrorIs(err, models.ErrNotPending)

	_, err = s.service.Register(s.ctx, officerA, "P-1")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "assigned officers cannot register again")
}

func (s *ServiceSuite) TestApproveWithFullRosterStaysPending() {
	first, err := s.service.Register(s.ctx, officerA, "P-1")
	s.Require().NoError(err)
	second, err := s.service.Register(s.ctx, officerB, "P-1")
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, first.ID)
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, second.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.ErrorIs(err, projectmodels.ErrNoSlotsAvailable)

	stored, err := s.service.Get(s.ctx, second.ID)
	s.Require().NoError(err)
	s.Equal(projectmodels.RegistrationStatusPending, stored.Status)
}

func (s *ServiceSuite) TestReject() {
	r, err := s.service.Register(s.ctx, officerB, "P-1")
	s.Require().NoError(err)

	rejected, err := s.service.Reject(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(projectmodels.RegistrationStatusRejected, rejected.Status)

	_, err = s.service.Reject(s.ctx, r.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.Reject(s.ctx, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Reject(s.ctx, uuid.Nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestOfficerRegistrationsIgnoresRole() {
	r, err := s.service.Register(s.ctx, officerA, "P-1")
	s.Require().NoError(err)

	list, err := s.service.OfficerRegistrations(s.ctx, officerA.As(projectmodels.RoleApplicant))
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(r.ID, list[0].ID)

	byProject, err := s.service.ProjectRegistrations(s.ctx, "P-1")
	s.Require().NoError(err)
	s.Len(byProject, 1)

	_, err = s.service.OfficerRegistrations(s.ctx, projectmodels.User{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// failingCommitStore validates like the real store but never stores the result.
type failingCommitStore struct {
	*store.InMemory
}

func (f failingCommitStore) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Registration) error, _ func(*models.Registration)) (*models.Registration, error) {
	r, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	return nil, errors.New("commit failed")
}

func (s *ServiceSuite) TestApproveReleasesOfficerWhenCommitFails() {
	svc := New(failingCommitStore{s.store}, s.projects, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r, err := svc.Register(s.ctx, officerA, "P-1")
	s.Require().NoError(err)

	_, err = svc.Approve(s.ctx, r.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	p, err := s.projects.GetProject(s.ctx, "P-1")
	s.Require().NoError(err)
	s.False(p.HasOfficer(officerA))
	s.Equal(1, p.AvailableOfficerSlots())
}
