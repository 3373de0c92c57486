package models

import "slices"

// Officers returns a copy of the roster in assignment order.
func (p *Project) Officers() []User {
	return slices.Clone(p.officers)
}

func (p *Project) MaxOfficerSlots() int       { return p.maxOfficerSlots }
func (p *Project) AvailableOfficerSlots() int { return p.availableOfficerSlots }

// HasOfficer reports whether an officer with o's NRIC is on the roster.
func (p *Project) HasOfficer(o User) bool {
	return slices.ContainsFunc(p.officers, o.SameIdentity)
}

func (p *Project) CanAddOfficer(o User) error {
	if p.availableOfficerSlots <= 0 {
		return ErrNoSlotsAvailable
	}
	if p.HasOfficer(o) {
		return ErrAlreadyAssigned
	}
	return nil
}

// AddOfficer appends o to the roster and consumes a slot.
func (p *Project) AddOfficer(o User) bool {
	if p.CanAddOfficer(o) != nil {
		return false
	}
	p.officers = append(p.officers, o.As(RoleOfficer))
	p.availableOfficerSlots--
	return true
}

func (p *Project) CanRemoveOfficer(o User) error {
	if !p.HasOfficer(o) {
		return ErrNotAssigned
	}
	return nil
}

// RemoveOfficer takes o off the roster and frees a slot.
func (p *Project) RemoveOfficer(o User) bool {
	if p.CanRemoveOfficer(o) != nil {
		return false
	}
	p.officers = slices.DeleteFunc(p.officers, o.SameIdentity)
	p.availableOfficerSlots = min(p.availableOfficerSlots+1, p.maxOfficerSlots)
	return true
}

// SetOfficerSlots resizes the roster limit. It never drops below the current
// roster size, and availability is recomputed from the roster.
func (p *Project) SetOfficerSlots(slots int) {
	p.maxOfficerSlots = max(slots, len(p.officers))
	p.availableOfficerSlots = p.maxOfficerSlots - len(p.officers)
}

func (p *Project) CanDecrementOfficerSlots() error {
	if p.availableOfficerSlots <= 0 {
		return ErrNoSlotsAvailable
	}
	return nil
}

// DecrementOfficerSlots lowers availability by one without touching the roster.
func (p *Project) DecrementOfficerSlots() bool {
	if p.CanDecrementOfficerSlots() != nil {
		return false
	}
	p.availableOfficerSlots--
	return true
}

func (p *Project) CanIncrementOfficerSlots() error {
	if p.availableOfficerSlots >= p.maxOfficerSlots {
		return ErrOfficerSlotsFull
	}
	return nil
}

// IncrementOfficerSlots raises availability by one without touching the roster.
func (p *Project) IncrementOfficerSlots() bool {
	if p.CanIncrementOfficerSlots() != nil {
		return false
	}
	p.availableOfficerSlots++
	return true
}
