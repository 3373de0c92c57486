package models

import (
	"context"
	"slices"
)

// BookingNotifier is told about every successful unit decrement.
// Implementations handle their own failures; the ledger never inspects them.
type BookingNotifier interface {
	UpdateProjectUnitsAfterBooking(ctx context.Context, p *Project, flatType FlatType)
}

// FlatTypes returns every registered flat type (including zero totals) in
// declaration order.
func (p *Project) FlatTypes() []FlatType {
	types := make([]FlatType, 0, len(p.totalUnits))
	for _, t := range AllFlatTypes {
		if _, ok := p.totalUnits[t]; ok {
			types = append(types, t)
		}
	}
	var extra []FlatType
	for t := range p.totalUnits {
		if !t.IsValid() {
			extra = append(extra, t)
		}
	}
	slices.Sort(extra)
	return append(types, extra...)
}

// HasFlatType reports whether t is registered with a positive total.
func (p *Project) HasFlatType(t FlatType) bool {
	return p.totalUnits[t] > 0
}

// IsFlatTypeRegistered reports whether t has an entry, even with a zero total.
func (p *Project) IsFlatTypeRegistered(t FlatType) bool {
	_, ok := p.totalUnits[t]
	return ok
}

func (p *Project) TotalUnitsByType(t FlatType) int {
	return p.totalUnits[t]
}

func (p *Project) AvailableUnitsByType(t FlatType) int {
	return p.availableUnits[t]
}

// SetNumberOfUnitsByType overwrites the total for t and pulls availability down
// to it when needed. Negative counts are treated as zero.
func (p *Project) SetNumberOfUnitsByType(t FlatType, count int) {
	count = max(count, 0)
	p.totalUnits[t] = count
	p.availableUnits[t] = min(p.availableUnits[t], count)
}

// SetAvailableUnitsByType sets availability for t, clamped into [0, total].
func (p *Project) SetAvailableUnitsByType(t FlatType, count int) {
	p.availableUnits[t] = min(max(count, 0), p.totalUnits[t])
}

// CanDecrementAvailableUnits checks whether one unit of t can be booked.
func (p *Project) CanDecrementAvailableUnits(t FlatType) error {
	if p.availableUnits[t] <= 0 {
		return ErrNoUnitsAvailable
	}
	return nil
}

// DecrementAvailableUnits books one unit of t. On success notifier (when non-nil)
// is called exactly once, after the ledger has changed.
func (p *Project) DecrementAvailableUnits(ctx context.Context, t FlatType, notifier BookingNotifier) bool {
	if p.CanDecrementAvailableUnits(t) != nil {
		return false
	}
	p.availableUnits[t]--
	if notifier != nil {
		notifier.UpdateProjectUnitsAfterBooking(ctx, p, t)
	}
	return true
}

// CanIncrementAvailableUnits checks whether one unit of t can be released.
func (p *Project) CanIncrementAvailableUnits(t FlatType) error {
	if p.availableUnits[t] >= p.totalUnits[t] {
		return ErrAtCapacity
	}
	return nil
}

// IncrementAvailableUnits releases one unit of t back to availability.
func (p *Project) IncrementAvailableUnits(t FlatType) bool {
	if p.CanIncrementAvailableUnits(t) != nil {
		return false
	}
	p.availableUnits[t]++
	return true
}
