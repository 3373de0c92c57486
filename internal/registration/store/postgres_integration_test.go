//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	projectmodels "bto/internal/project/models"
	"bto/internal/registration/models"
	"bto/internal/registration/store"
	"bto/pkg/platform/sentinel"
	"bto/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "officer_registrations"))
}

func newRegistration(s *PostgresStoreSuite, nric, projectID string, at time.Time) *models.Registration {
	officer := projectmodels.User{NRIC: nric, Name: "Officer", Age: 34, MaritalStatus: projectmodels.MaritalStatusMarried, Role: projectmodels.RoleOfficer}
	r, err := models.NewRegistration(uuid.New(), officer, projectID, at)
	s.Require().NoError(err)
	return r
}

func (s *PostgresStoreSuite) TestRoundTripAndUniqueness() {
	ctx := context.Background()
	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	r := newRegistration(s, "T5550001A", "P-1", at)
	s.Require().NoError(s.store.Create(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.Officer, found.Officer)
	s.Equal(projectmodels.RegistrationStatusPending, found.Status)
	s.True(found.CreatedAt.Equal(at))

	err = s.store.Create(ctx, newRegistration(s, "T5550001A", "P-1", at))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecuteAndList() {
	ctx := context.Background()
	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	first := newRegistration(s, "T5550002B", "P-1", at)
	second := newRegistration(s, "T5550002B", "P-2", at.Add(time.Minute))
	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))

	decided := at.Add(time.Hour)
	updated, err := s.store.Execute(ctx, first.ID,
		func(r *models.Registration) error { return r.CanDecide() },
		func(r *models.Registration) { r.ApplyRejection(decided) },
	)
	s.Require().NoError(err)
	s.Equal(projectmodels.RegistrationStatusRejected, updated.Status)

	_, err = s.store.Execute(ctx, first.ID,
		func(r *models.Registration) error { return r.CanDecide() },
		func(r *models.Registration) { r.ApplyApproval(decided) },
	)
	s.ErrorIs(err, models.ErrNotPending)

	list, err := s.store.ListByOfficer(ctx, "T5550002B")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.True(list[0].UpdatedAt.Equal(decided))

	viaCandidate, err := s.store.OfficerRegistrations(ctx, projectmodels.User{NRIC: " t5550002b"})
	s.Require().NoError(err)
	s.Len(viaCandidate, 2)

	byProject, err := s.store.ListByProject(ctx, "P-2")
	s.Require().NoError(err)
	s.Len(byProject, 1)

	s.NoError(s.store.Create(ctx, newRegistration(s, "T5550002B", "P-1", decided)), "rejected rows do not block a new registration")
}
