package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	projectmodels "bto/internal/project/models"
	"bto/internal/registration/models"
	"bto/pkg/platform/sentinel"
)

// InMemory keeps registrations in a map guarded by a single mutex.
type InMemory struct {
	mu            sync.Mutex
	registrations map[uuid.UUID]*models.Registration
}

func NewInMemory() *InMemory {
	return &InMemory{registrations: make(map[uuid.UUID]*models.Registration)}
}

// Create stores r. Returns sentinel.ErrAlreadyUsed when the officer already
// holds an open registration for the project.
func (s *InMemory) Create(_ context.Context, r *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[r.ID]; ok {
		return fmt.Errorf("registration %s: %w", r.ID, sentinel.ErrAlreadyUsed)
	}
	for _, existing := range s.registrations {
		if existing.IsOpen() && existing.ProjectID == r.ProjectID && existing.Officer.SameIdentity(r.Officer) {
			return fmt.Errorf("open registration for %s on %s: %w", r.Officer.NRIC, r.ProjectID, sentinel.ErrAlreadyUsed)
		}
	}
	s.registrations[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// ListByOfficer returns every registration of the officer, oldest first.
func (s *InMemory) ListByOfficer(_ context.Context, nric string) ([]*models.Registration, error) {
	return s.filter(func(r *models.Registration) bool { return r.Officer.NRIC == nric }), nil
}

// OfficerRegistrations lists every registration held by candidate's identity.
// The eligibility engine reads officer history through it.
func (s *InMemory) OfficerRegistrations(ctx context.Context, candidate projectmodels.User) ([]*models.Registration, error) {
	return s.ListByOfficer(ctx, normalizeNRIC(candidate.NRIC))
}

// ListByProject returns every registration for the project, oldest first.
func (s *InMemory) ListByProject(_ context.Context, projectID string) ([]*models.Registration, error) {
	return s.filter(func(r *models.Registration) bool { return r.ProjectID == projectID }), nil
}

func (s *InMemory) filter(keep func(*models.Registration) bool) []*models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Registration
	for _, r := range s.registrations {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Registration) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// Execute runs validate then mutate on a copy under the store lock and keeps
// the copy only if validate succeeded.
func (s *InMemory) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, ok := s.registrations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := current.Clone()
	if validate != nil {
		if err := validate(working); err != nil {
			return nil, err
		}
	}
	mutate(working)
	s.registrations[id] = working
	return working.Clone(), nil
}

func normalizeNRIC(nric string) string {
	return strings.ToUpper(strings.TrimSpace(nric))
}
