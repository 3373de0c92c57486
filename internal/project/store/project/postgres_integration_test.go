//go:build integration

package project_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bto/internal/project/models"
	"bto/internal/project/store/project"
	"bto/pkg/platform/sentinel"
	"bto/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *project.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = project.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "project_officers", "project_units", "projects")
	s.Require().NoError(err)
}

func newTestProject(id string, twoRoom, threeRoom, slots int) *models.Project {
	manager := models.User{NRIC: "S2222222M", Name: "Manager", Age: 52, MaritalStatus: models.MaritalStatusMarried, Role: models.RoleManager}
	open := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := models.NewProject(id, "Project "+id, "Bukit Batok",
		map[models.FlatType]int{models.FlatTypeTwoRoom: twoRoom, models.FlatTypeThreeRoom: threeRoom},
		open, open.Add(30*24*time.Hour), manager, slots)
	if err != nil {
		panic(err)
	}
	return p
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	p := newTestProject("P-RT", 10, 0, 3)
	p.AddOfficer(models.User{NRIC: "T1000001A", Name: "Olivia", Age: 29, MaritalStatus: models.MaritalStatusSingle, Role: models.RoleOfficer})
	p.AddOfficer(models.User{NRIC: "T1000002B", Name: "Oscar", Age: 33, MaritalStatus: models.MaritalStatusMarried, Role: models.RoleOfficer})
	p.SetAvailableUnitsByType(models.FlatTypeTwoRoom, 7)

	s.Require().NoError(s.store.Create(ctx, p))

	found, err := s.store.FindByID(ctx, "P-RT")
	s.Require().NoError(err)

	want := p.Snapshot()
	got := found.Snapshot()
	s.Equal(want.TotalUnits, got.TotalUnits)
	s.Equal(want.AvailableUnits, got.AvailableUnits)
	s.Equal(want.Officers, got.Officers, "roster order is preserved")
	s.Equal(want.Manager, got.Manager)
	s.Equal(want.MaxOfficerSlots, got.MaxOfficerSlots)
	s.Equal(want.AvailableOfficerSlots, got.AvailableOfficerSlots)
	s.True(want.ApplicationOpenDate.Equal(got.ApplicationOpenDate))
	s.True(found.IsFlatTypeRegistered(models.FlatTypeThreeRoom), "zero-total types survive persistence")
}

func (s *PostgresStoreSuite) TestDuplicateAndMissing() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newTestProject("P-DUP", 1, 1, 1)))

	err := s.store.Create(ctx, newTestProject("P-DUP", 2, 2, 2))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	_, err = s.store.FindByID(ctx, "P-NOPE")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Execute(ctx, "P-NOPE", nil, func(*models.Project) {})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()
	for _, id := range []string{"P-2", "P-1", "P-3"} {
		s.Require().NoError(s.store.Create(ctx, newTestProject(id, 1, 2, 1)))
	}

	projects, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(projects, 3)
	s.Equal("P-1", projects[0].ID())
	s.Equal(2, projects[2].TotalUnitsByType(models.FlatTypeThreeRoom))
}

func (s *PostgresStoreSuite) TestExecuteRollsBackOnValidationError() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newTestProject("P-RB", 0, 0, 1)))

	_, err := s.store.Execute(ctx, "P-RB",
		func(p *models.Project) error { return p.CanDecrementAvailableUnits(models.FlatTypeTwoRoom) },
		func(p *models.Project) { p.SetVisible(false) },
	)
	s.ErrorIs(err, models.ErrNoUnitsAvailable)

	found, err := s.store.FindByID(ctx, "P-RB")
	s.Require().NoError(err)
	s.True(found.IsVisible())
}

// TestConcurrentOfficerAssignment verifies FOR UPDATE serialises roster changes:
// exactly maxSlots distinct officers get in.
func (s *PostgresStoreSuite) TestConcurrentOfficerAssignment() {
	ctx := context.Background()
	const slots = 3
	const goroutines = 20
	s.Require().NoError(s.store.Create(ctx, newTestProject("P-RACE", 5, 5, slots)))

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var fullCount atomic.Int32

	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			officer := models.User{NRIC: "T9" + string(rune('A'+i)), Name: "Officer", Age: 30, MaritalStatus: models.MaritalStatusSingle, Role: models.RoleOfficer}
			_, err := s.store.Execute(ctx, "P-RACE",
				func(p *models.Project) error { return p.CanAddOfficer(officer) },
				func(p *models.Project) { p.AddOfficer(officer) },
			)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, models.ErrNoSlotsAvailable):
				fullCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(slots), successCount.Load())
	s.Equal(int32(goroutines-slots), fullCount.Load())

	found, err := s.store.FindByID(ctx, "P-RACE")
	s.Require().NoError(err)
	s.Len(found.Officers(), slots)
	s.Equal(0, found.AvailableOfficerSlots())
}

// TestCommittedCallbacksFollowCommitOrder verifies the advisory lock keeps
// callbacks of racing bookings in commit order and that each callback sees
// the committed row.
func (s *PostgresStoreSuite) TestCommittedCallbacksFollowCommitOrder() {
	ctx := context.Background()
	const units = 10
	s.Require().NoError(s.store.Create(ctx, newTestProject("P-CB", units, 0, 1)))

	var (
		mu   sync.Mutex
		seen []int
		wg   sync.WaitGroup
	)
	for range units {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, "P-CB",
				func(p *models.Project) error { return p.CanDecrementAvailableUnits(models.FlatTypeTwoRoom) },
				func(p *models.Project) { p.DecrementAvailableUnits(ctx, models.FlatTypeTwoRoom, nil) },
				func(p *models.Project) {
					stored, err := s.store.FindByID(ctx, "P-CB")
					s.NoError(err)
					s.Equal(p.AvailableUnitsByType(models.FlatTypeTwoRoom), stored.AvailableUnitsByType(models.FlatTypeTwoRoom))
					mu.Lock()
					seen = append(seen, p.AvailableUnitsByType(models.FlatTypeTwoRoom))
					mu.Unlock()
				},
			)
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Require().Len(seen, units)
	for i, left := range seen {
		s.Equal(units-1-i, left)
	}

	_, err := s.store.Execute(ctx, "P-CB", nil, nil, func(p *models.Project) {
		s.Equal(0, p.AvailableUnitsByType(models.FlatTypeTwoRoom))
	})
	s.Require().NoError(err)
}
