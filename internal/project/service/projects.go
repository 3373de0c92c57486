package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bto/internal/project/models"
	dErrors "bto/pkg/domain-errors"
	"bto/pkg/platform/audit"
)

// CreateProjectInput carries a new project's details. An empty ID is
// replaced with a generated one.
type CreateProjectInput struct {
	ID           string
	Name         string
	Neighborhood string
	Units        map[models.FlatType]int
	OpenDate     time.Time
	CloseDate    time.Time
	Manager      models.User
	OfficerSlots int
	Hidden       bool
}

// UpdateDetailsInput is a partial update; nil fields are left unchanged.
type UpdateDetailsInput struct {
	Name         *string
	Neighborhood *string
	OpenDate     *time.Time
	CloseDate    *time.Time
	Visible      *bool
}

func (in UpdateDetailsInput) isEmpty() bool {
	return in.Name == nil && in.Neighborhood == nil && in.OpenDate == nil && in.CloseDate == nil && in.Visible == nil
}

func validateWindow(openAt, closeAt time.Time) error {
	if openAt.IsZero() || closeAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "application window dates are required")
	}
	if closeAt.Before(openAt) {
		return dErrors.New(dErrors.CodeValidation, "application close date must not be before open date")
	}
	return nil
}

func validateUnits(units map[models.FlatType]int) error {
	for t, n := range units {
		if !t.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown flat type: "+string(t))
		}
		if n < 0 {
			return dErrors.New(dErrors.CodeValidation, "unit counts must not be negative")
		}
	}
	return nil
}

func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "project name is required")
	}
	if err := validateUnits(in.Units); err != nil {
		return nil, err
	}
	if err := validateWindow(in.OpenDate, in.CloseDate); err != nil {
		return nil, err
	}
	if in.OfficerSlots < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "officer slots must not be negative")
	}

	p, err := models.NewProject(in.ID, in.Name, strings.TrimSpace(in.Neighborhood), in.Units,
		in.OpenDate, in.CloseDate, in.Manager, in.OfficerSlots)
	if err != nil {
		// Convert invariant violations to validation errors for API response
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if in.Hidden {
		p.SetVisible(false)
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, wrapProjectErr(err, "create project")
	}

	s.metrics.IncrementProjectsCreated()
	if s.cache != nil {
		if _, err := s.primeCache(ctx, p.ID()); err != nil {
			s.logger.WarnContext(ctx, "failed to prime availability cache",
				"project_id", p.ID(),
				"error", err,
			)
		}
	}
	s.logAudit(ctx, audit.EventProjectCreated,
		"project_id", p.ID(),
		"actor", p.Manager().NRIC,
	)
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*models.Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "project id is required")
	}
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapProjectErr(err, "load project")
	}
	return p, nil
}

// ProjectState returns the diagnostic view of a project.
func (s *Service) ProjectState(ctx context.Context, id string) (models.ProjectState, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return models.ProjectState{}, err
	}
	return p.State(), nil
}

// ListProjects returns projects ordered by ID, optionally only visible ones.
func (s *Service) ListProjects(ctx context.Context, visibleOnly bool) ([]*models.Project, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, wrapProjectErr(err, "list projects")
	}
	if !visibleOnly {
		return all, nil
	}
	out := make([]*models.Project, 0, len(all))
	for _, p := range all {
		if p.IsVisible() {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateDetails applies a partial update. The resulting window is checked
// under the project lock so concurrent date edits cannot invert it.
func (s *Service) UpdateDetails(ctx context.Context, id string, in UpdateDetailsInput) (*models.Project, error) {
	if in.isEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "project name must not be empty")
	}

	p, err := s.store.Execute(ctx, id,
		func(p *models.Project) error {
			openAt, closeAt := p.ApplicationOpenDate(), p.ApplicationCloseDate()
			if in.OpenDate != nil {
				openAt = *in.OpenDate
			}
			if in.CloseDate != nil {
				closeAt = *in.CloseDate
			}
			return validateWindow(openAt, closeAt)
		},
		func(p *models.Project) {
			if in.Name != nil {
				p.SetName(strings.TrimSpace(*in.Name))
			}
			if in.Neighborhood != nil {
				p.SetNeighborhood(strings.TrimSpace(*in.Neighborhood))
			}
			if in.OpenDate != nil {
				p.SetApplicationOpenDate(*in.OpenDate)
			}
			if in.CloseDate != nil {
				p.SetApplicationCloseDate(*in.CloseDate)
			}
			if in.Visible != nil {
				p.SetVisible(*in.Visible)
			}
		},
	)
	if err != nil {
		return nil, wrapProjectErr(err, "update project")
	}

	s.logAudit(ctx, audit.EventProjectUpdated, "project_id", p.ID())
	return p, nil
}

// SetOfficerSlots resizes the roster limit. The limit never drops below the
// number of officers already assigned.
func (s *Service) SetOfficerSlots(ctx context.Context, id string, slots int) (*models.Project, error) {
	if slots < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "officer slots must not be negative")
	}
	p, err := s.store.Execute(ctx, id, nil, func(p *models.Project) {
		p.SetOfficerSlots(slots)
	})
	if err != nil {
		return nil, wrapProjectErr(err, "set officer slots")
	}

	s.logAudit(ctx, audit.EventOfficerSlotsChanged,
		"project_id", p.ID(),
		"max_officer_slots", p.MaxOfficerSlots(),
	)
	return p, nil
}

// SetUnits overwrites the total and/or available count of one flat type.
// Total is applied first, so available is clamped against the new total.
func (s *Service) SetUnits(ctx context.Context, id string, flatType models.FlatType, total, available *int) (*models.Project, error) {
	if !flatType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown flat type: "+string(flatType))
	}
	if total == nil && available == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "total or available is required")
	}
	if (total != nil && *total < 0) || (available != nil && *available < 0) {
		return nil, dErrors.New(dErrors.CodeValidation, "unit counts must not be negative")
	}

	p, err := s.store.Execute(ctx, id, nil,
		func(p *models.Project) {
			if total != nil {
				p.SetNumberOfUnitsByType(flatType, *total)
			}
			if available != nil {
				p.SetAvailableUnitsByType(flatType, *available)
			}
		},
		func(p *models.Project) { s.refreshCache(ctx, p) },
	)
	if err != nil {
		return nil, wrapProjectErr(err, "set units")
	}

	s.logAudit(ctx, audit.EventUnitsAdjusted,
		"project_id", p.ID(),
		"flat_type", string(flatType),
	)
	return p, nil
}
