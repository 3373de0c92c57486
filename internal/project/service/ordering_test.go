package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"bto/internal/project/models"
	"bto/internal/project/store/availability"
	"bto/pkg/platform/sentinel"
)

// gatedCache records every ledger written to it. Once armed, the next Put
// blocks until release is closed.
type gatedCache struct {
	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
	writes  []int
	current map[models.FlatType]availability.Units
}

func newGatedCache() *gatedCache {
	return &gatedCache{entered: make(chan struct{}), release: make(chan struct{})}
}

func (c *gatedCache) arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = true
}

func (c *gatedCache) Put(_ context.Context, p *models.Project) error {
	c.mu.Lock()
	gate := c.armed
	c.armed = false
	c.mu.Unlock()
	if gate {
		close(c.entered)
		<-c.release
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, p.AvailableUnitsByType(models.FlatTypeTwoRoom))
	c.current = ledgerOf(p)
	return nil
}

func (c *gatedCache) Get(_ context.Context, _ string) (map[models.FlatType]availability.Units, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, sentinel.ErrNotFound
	}
	return c.current, nil
}

func (c *gatedCache) Invalidate(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	return nil
}

func (c *gatedCache) written() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.writes...)
}

type recordingNotifier struct {
	mu        sync.Mutex
	available []int
}

func (n *recordingNotifier) UpdateProjectUnitsAfterBooking(_ context.Context, p *models.Project, t models.FlatType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.available = append(n.available, p.AvailableUnitsByType(t))
}

func (s *ServiceSuite) TestOverlappingBookingsKeepCacheCurrent() {
	cache := newGatedCache()
	svc := New(s.store, s.engine,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAvailabilityCache(cache),
		WithMetrics(s.metrics),
	)
	_, err := svc.CreateProject(s.ctx, CreateProjectInput{
		ID: "P-O", Name: "Overlap", Units: map[models.FlatType]int{models.FlatTypeTwoRoom: 2},
		OpenDate: openAt, CloseDate: closeAt, Manager: manager,
	})
	s.Require().NoError(err)
	cache.arm()

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.BookUnit(s.ctx, "P-O", models.FlatTypeTwoRoom)
		firstDone <- err
	}()
	<-cache.entered

	secondDone := make(chan error, 1)
	go func() {
		_, err := svc.BookUnit(s.ctx, "P-O", models.FlatTypeTwoRoom)
		secondDone <- err
	}()

	var secondErr error
	finishedEarly := false
	select {
	case secondErr = <-secondDone:
		finishedEarly = true
	case <-time.After(50 * time.Millisecond):
	}
	close(cache.release)

	s.Require().NoError(<-firstDone)
	if !finishedEarly {
		secondErr = <-secondDone
	}
	s.Require().NoError(secondErr)
	s.False(finishedEarly, "second booking must wait until the first booking's cache write returns")

	s.Equal([]int{2, 1, 0}, cache.written())

	stored, err := svc.GetProject(s.ctx, "P-O")
	s.Require().NoError(err)
	units, err := svc.Availability(s.ctx, "P-O")
	s.Require().NoError(err)
	s.Equal(stored.AvailableUnitsByType(models.FlatTypeTwoRoom), units[models.FlatTypeTwoRoom].Available)
	s.Equal(0, units[models.FlatTypeTwoRoom].Available)
}

func (s *ServiceSuite) TestConcurrentBookingsNotifyInCommitOrder() {
	const units = 20
	notifier := &recordingNotifier{}
	svc := New(s.store, s.engine,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBookingNotifier(notifier),
	)
	_, err := svc.CreateProject(s.ctx, CreateProjectInput{
		ID: "P-N", Name: "Notify", Units: map[models.FlatType]int{models.FlatTypeTwoRoom: units},
		OpenDate: openAt, CloseDate: closeAt, Manager: manager,
	})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for range units {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BookUnit(s.ctx, "P-N", models.FlatTypeTwoRoom)
			s.NoError(err)
		}()
	}
	wg.Wait()

	want := make([]int, 0, units)
	for left := units - 1; left >= 0; left-- {
		want = append(want, left)
	}
	s.Equal(want, notifier.available)
}

func (s *ServiceSuite) TestCacheMissRefillsUnderLock() {
	cache := newGatedCache()
	svc := New(s.store, s.engine,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAvailabilityCache(cache),
		WithMetrics(s.metrics),
	)
	_, err := svc.CreateProject(s.ctx, CreateProjectInput{
		ID: "P-M", Name: "Miss", Units: map[models.FlatType]int{models.FlatTypeTwoRoom: 2},
		OpenDate: openAt, CloseDate: closeAt, Manager: manager,
	})
	s.Require().NoError(err)
	s.Require().NoError(cache.Invalidate(s.ctx, "P-M"))
	cache.arm()

	readDone := make(chan error, 1)
	go func() {
		_, err := svc.Availability(s.ctx, "P-M")
		readDone <- err
	}()
	<-cache.entered

	bookDone := make(chan error, 1)
	go func() {
		_, err := svc.BookUnit(s.ctx, "P-M", models.FlatTypeTwoRoom)
		bookDone <- err
	}()
	close(cache.release)

	s.Require().NoError(<-readDone)
	s.Require().NoError(<-bookDone)

	units, err := svc.Availability(s.ctx, "P-M")
	s.Require().NoError(err)
	s.Equal(1, units[models.FlatTypeTwoRoom].Available)
}
