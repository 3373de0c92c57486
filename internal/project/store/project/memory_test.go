package project

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bto/internal/project/models"
	"bto/pkg/platform/sentinel"
)

type ProjectStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ProjectStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestProjectStoreSuite(t *testing.T) {
	suite.Run(t, new(ProjectStoreSuite))
}

func (s *ProjectStoreSuite) newProject(id string, twoRoom int) *models.Project {
	manager := models.User{NRIC: "S1111111M", Name: "Manager", Age: 48, MaritalStatus: models.MaritalStatusMarried, Role: models.RoleManager}
	now := time.Now()
	p, err := models.NewProject(id, "Project "+id, "Sengkang",
		map[models.FlatType]int{models.FlatTypeTwoRoom: twoRoom},
		now.Add(-time.Hour), now.Add(time.Hour), manager, 3)
	s.Require().NoError(err)
	return p
}

func (s *ProjectStoreSuite) TestCreateAndFind() {
	s.Run("finds created project", func() {
		p := s.newProject("P-1", 4)
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, "P-1")
		s.Require().NoError(err)
		s.True(found.Equal(p))
		s.Equal(4, found.AvailableUnitsByType(models.FlatTypeTwoRoom))
	})

	s.Run("rejects duplicate id", func() {
		err := s.store.Create(s.ctx, s.newProject("P-1", 1))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, "P-MISSING")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned projects are copies", func() {
		found, err := s.store.FindByID(s.ctx, "P-1")
		s.Require().NoError(err)
		found.SetAvailableUnitsByType(models.FlatTypeTwoRoom, 0)

		again, err := s.store.FindByID(s.ctx, "P-1")
		s.Require().NoError(err)
		s.Equal(4, again.AvailableUnitsByType(models.FlatTypeTwoRoom))
	})
}

func (s *ProjectStoreSuite) TestListOrderedByID() {
	for _, id := range []string{"P-C", "P-A", "P-B"} {
		s.Require().NoError(s.store.Create(s.ctx, s.newProject(id, 1)))
	}

	projects, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(projects, 3)
	s.Equal("P-A", projects[0].ID())
	s.Equal("P-B", projects[1].ID())
	s.Equal("P-C", projects[2].ID())
}

func (s *ProjectStoreSuite) TestExecute() {
	s.Require().NoError(s.store.Create(s.ctx, s.newProject("P-X", 2)))

	s.Run("applies mutation", func() {
		updated, err := s.store.Execute(s.ctx, "P-X",
			func(p *models.Project) error { return p.CanDecrementAvailableUnits(models.FlatTypeTwoRoom) },
			func(p *models.Project) { p.DecrementAvailableUnits(s.ctx, models.FlatTypeTwoRoom, nil) },
		)
		s.Require().NoError(err)
		s.Equal(1, updated.AvailableUnitsByType(models.FlatTypeTwoRoom))

		found, err := s.store.FindByID(s.ctx, "P-X")
		s.Require().NoError(err)
		s.Equal(1, found.AvailableUnitsByType(models.FlatTypeTwoRoom))
	})

	s.Run("validation failure leaves project untouched", func() {
		errStop := errors.New("stop")
		_, err := s.store.Execute(s.ctx, "P-X",
			func(p *models.Project) error { return errStop },
			func(p *models.Project) { p.SetVisible(false) },
		)
		s.ErrorIs(err, errStop)

		found, err := s.store.FindByID(s.ctx, "P-X")
		s.Require().NoError(err)
		s.True(found.IsVisible())
	})

	s.Run("unknown project", func() {
		_, err := s.store.Execute(s.ctx, "P-NONE", nil, func(*models.Project) {})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("cancelled context", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		_, err := s.store.Execute(ctx, "P-X", nil, func(*models.Project) {})
		s.ErrorIs(err, context.Canceled)
	})
}

// TestConcurrentBookingOfLastUnits verifies that racing bookings never oversell.
func (s *ProjectStoreSuite) TestConcurrentBookingOfLastUnits() {
	const units = 5
	const goroutines = 50
	s.Require().NoError(s.store.Create(s.ctx, s.newProject("P-RACE", units)))

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var soldOutCount atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, "P-RACE",
				func(p *models.Project) error { return p.CanDecrementAvailableUnits(models.FlatTypeTwoRoom) },
				func(p *models.Project) { p.DecrementAvailableUnits(s.ctx, models.FlatTypeTwoRoom, nil) },
			)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, models.ErrNoUnitsAvailable):
				soldOutCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(units), successCount.Load())
	s.Equal(int32(goroutines-units), soldOutCount.Load())

	found, err := s.store.FindByID(s.ctx, "P-RACE")
	s.Require().NoError(err)
	s.Equal(0, found.AvailableUnitsByType(models.FlatTypeTwoRoom))
}

func (s *ProjectStoreSuite) TestExecuteCommittedCallbacks() {
	s.Require().NoError(s.store.Create(s.ctx, s.newProject("P-CB", 3)))

	s.Run("run after the change is stored", func() {
		var seen int
		_, err := s.store.Execute(s.ctx, "P-CB", nil,
			func(p *models.Project) { p.DecrementAvailableUnits(s.ctx, models.FlatTypeTwoRoom, nil) },
			func(p *models.Project) {
				stored, err := s.store.FindByID(s.ctx, "P-CB")
				s.Require().NoError(err)
				seen = stored.AvailableUnitsByType(models.FlatTypeTwoRoom)
			},
		)
		s.Require().NoError(err)
		s.Equal(2, seen)
	})

	s.Run("skipped when validation fails", func() {
		called := false
		_, err := s.store.Execute(s.ctx, "P-CB",
			func(*models.Project) error { return models.ErrNoUnitsAvailable },
			func(*models.Project) {},
			func(*models.Project) { called = true },
		)
		s.ErrorIs(err, models.ErrNoUnitsAvailable)
		s.False(called)
	})

	s.Run("nil mutate reads under the lock", func() {
		var seen int
		p, err := s.store.Execute(s.ctx, "P-CB", nil, nil, func(p *models.Project) {
			seen = p.AvailableUnitsByType(models.FlatTypeTwoRoom)
		})
		s.Require().NoError(err)
		s.Equal(2, seen)
		s.Equal(2, p.AvailableUnitsByType(models.FlatTypeTwoRoom))
	})
}

// TestCommittedCallbacksFollowCommitOrder verifies callbacks of racing
// bookings observe strictly decreasing availability.
func (s *ProjectStoreSuite) TestCommittedCallbacksFollowCommitOrder() {
	const units = 25
	s.Require().NoError(s.store.Create(s.ctx, s.newProject("P-ORD", units)))

	var (
		mu   sync.Mutex
		seen []int
		wg   sync.WaitGroup
	)
	for range units {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, "P-ORD",
				func(p *models.Project) error { return p.CanDecrementAvailableUnits(models.FlatTypeTwoRoom) },
				func(p *models.Project) { p.DecrementAvailableUnits(s.ctx, models.FlatTypeTwoRoom, nil) },
				func(p *models.Project) {
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
}
