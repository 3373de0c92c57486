package project

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"bto/internal/project/models"
	"bto/pkg/platform/sentinel"
)

// InMemory stores projects in a map keyed by project ID.
//
// Callers always receive clones. Execute holds a per-project lock across
// validate and mutate, then swaps the stored value, so concurrent mutations of
// one project are serialised while other projects proceed in parallel.
type InMemory struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
	locks    map[string]*sync.Mutex
}

func NewInMemory() *InMemory {
	return &InMemory{
		projects: make(map[string]*models.Project),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Create stores p. Returns sentinel.ErrAlreadyUsed when the ID is taken.
func (s *InMemory) Create(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.Key()]; ok {
		return fmt.Errorf("project %s: %w", p.ID(), sentinel.ErrAlreadyUsed)
	}
	s.projects[p.Key()] = p.Clone()
	s.locks[p.Key()] = &sync.Mutex{}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

// List returns every project ordered by ID.
func (s *InMemory) List(_ context.Context) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Project) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return out, nil
}

// Execute runs validate then mutate against a private copy of the project under
// its lock, and stores the copy only if validate succeeded. The validate error
// is returned unwrapped. A nil mutate reads the project under the lock without
// writing it.
//
// committed callbacks run after the copy is stored and before the lock is
// released, so they observe mutations of one project in commit order.
func (s *InMemory) Execute(ctx context.Context, id string, validate func(*models.Project) error, mutate func(*models.Project), committed ...func(*models.Project)) (*models.Project, error) {
	s.mu.RLock()
	lock, ok := s.locks[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	current, ok := s.projects[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	working := current.Clone()
	if validate != nil {
		if err := validate(working); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(working)
		s.mu.Lock()
		s.projects[id] = working
		s.mu.Unlock()
	}

	for _, fn := range committed {
		fn(working.Clone())
	}
	return working.Clone(), nil
}
