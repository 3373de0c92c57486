package service

import (
	"context"
	"strings"

	"bto/internal/project/models"
	dErrors "bto/pkg/domain-errors"
	"bto/pkg/platform/audit"
)

// pendingBooking captures the domain's booking notification inside the store
// callback so it can be forwarded once the mutation is committed.
type pendingBooking struct {
	fired    bool
	flatType models.FlatType
}

func (b *pendingBooking) UpdateProjectUnitsAfterBooking(_ context.Context, _ *models.Project, t models.FlatType) {
	b.fired = true
	b.flatType = t
}

// BookUnit takes one available unit of flatType. The booking notifier runs
// exactly once, after the new ledger is stored and before the project is
// unlocked, so notifications for one project arrive in booking order.
func (s *Service) BookUnit(ctx context.Context, id string, flatType models.FlatType) (*models.Project, error) {
	if !flatType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown flat type: "+string(flatType))
	}

	pending := &pendingBooking{}
	p, err := s.store.Execute(ctx, id,
		func(p *models.Project) error { return p.CanDecrementAvailableUnits(flatType) },
		func(p *models.Project) { p.DecrementAvailableUnits(ctx, flatType, pending) },
		func(p *models.Project) {
			if pending.fired {
				s.notifier.UpdateProjectUnitsAfterBooking(ctx, p, pending.flatType)
			}
		},
	)
	if err != nil {
		s.rejectLedger(err)
		return nil, wrapProjectErr(err, "book unit")
	}
	return p, nil
}

// ReleaseUnit returns one unit of flatType to availability.
func (s *Service) ReleaseUnit(ctx context.Context, id string, flatType models.FlatType) (*models.Project, error) {
	if !flatType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown flat type: "+string(flatType))
	}

	p, err := s.store.Execute(ctx, id,
		func(p *models.Project) error { return p.CanIncrementAvailableUnits(flatType) },
		func(p *models.Project) { p.IncrementAvailableUnits(flatType) },
		func(p *models.Project) { s.refreshCache(ctx, p) },
	)
	if err != nil {
		s.rejectLedger(err)
		return nil, wrapProjectErr(err, "release unit")
	}

	s.metrics.IncrementUnitsReleased(string(flatType))
	s.logAudit(ctx, audit.EventUnitReleased,
		"project_id", p.ID(),
		"flat_type", string(flatType),
	)
	return p, nil
}

// AssignOfficer adds officer to the roster, consuming a slot.
func (s *Service) AssignOfficer(ctx context.Context, id string, officer models.User) (*models.Project, error) {
	officer.NRIC = strings.ToUpper(strings.TrimSpace(officer.NRIC))
	if officer.NRIC == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "officer nric is required")
	}

	p, err := s.store.Execute(ctx, id,
		func(p *models.Project) error {
			if p.Manager().SameIdentity(officer) {
				return dErrors.New(dErrors.CodeConflict, "the manager in charge cannot be assigned as an officer")
			}
			return p.CanAddOfficer(officer)
		},
		func(p *models.Project) { p.AddOfficer(officer) },
	)
	if err != nil {
		s.rejectLedger(err)
		return nil, wrapProjectErr(err, "assign officer")
	}

	s.metrics.IncrementOfficerAssigned()
	s.logAudit(ctx, audit.EventOfficerAssigned,
		"project_id", p.ID(),
		"officer_nric", officer.NRIC,
	)
	return p, nil
}

// RemoveOfficer takes the officer with nric off the roster and frees a slot.
func (s *Service) RemoveOfficer(ctx context.Context, id string, nric string) (*models.Project, error) {
	officer := models.User{NRIC: strings.ToUpper(strings.TrimSpace(nric))}
	if officer.NRIC == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "officer nric is required")
	}

	p, err := s.store.Execute(ctx, id,
		func(p *models.Project) error { return p.CanRemoveOfficer(officer) },
		func(p *models.Project) { p.RemoveOfficer(officer) },
	)
	if err != nil {
		s.rejectLedger(err)
		return nil, wrapProjectErr(err, "remove officer")
	}

	s.metrics.IncrementOfficerRemoved()
	s.logAudit(ctx, audit.EventOfficerRemoved,
		"project_id", p.ID(),
		"officer_nric", officer.NRIC,
	)
	return p, nil
}

// AdjustOfficerSlots moves available officer slots by +1 or -1 without
// touching the roster.
func (s *Service) AdjustOfficerSlots(ctx context.Context, id string, delta int) (*models.Project, error) {
	var (
		check func(*models.Project) error
		apply func(*models.Project)
	)
	switch delta {
	case 1:
		check = (*models.Project).CanIncrementOfficerSlots
		apply = func(p *models.Project) { p.IncrementOfficerSlots() }
	case -1:
		check = (*models.Project).CanDecrementOfficerSlots
		apply = func(p *models.Project) { p.DecrementOfficerSlots() }
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "officer slot adjustment must be +1 or -1")
	}

	p, err := s.store.Execute(ctx, id, check, apply)
	if err != nil {
		s.rejectLedger(err)
		return nil, wrapProjectErr(err, "adjust officer slots")
	}

	s.logAudit(ctx, audit.EventOfficerSlotsChanged,
		"project_id", p.ID(),
		"available_officer_slots", p.AvailableOfficerSlots(),
	)
	return p, nil
}
