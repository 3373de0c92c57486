package models

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type UnitLedgerSuite struct {
	suite.Suite
	ctx context.Context
}

func TestUnitLedgerSuite(t *testing.T) {
	suite.Run(t, new(UnitLedgerSuite))
}

func (s *UnitLedgerSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *UnitLedgerSuite) assertBounded(p *Project) {
	for _, t := range p.FlatTypes() {
		avail := p.AvailableUnitsByType(t)
		s.GreaterOrEqual(avail, 0, "available %s", t)
		s.LessOrEqual(avail, p.TotalUnitsByType(t), "available %s", t)
	}
}

func (s *UnitLedgerSuite) TestQueries() {
	p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 0, FlatTypeThreeRoom: 3}, 1)

	s.False(p.HasFlatType(FlatTypeTwoRoom), "zero total is not offered")
	s.True(p.IsFlatTypeRegistered(FlatTypeTwoRoom))
	s.True(p.HasFlatType(FlatTypeThreeRoom))

	empty := newTestProject(nil, 1)
	s.Equal(0, empty.TotalUnitsByType(FlatTypeTwoRoom))
	s.Equal(0, empty.AvailableUnitsByType(FlatTypeTwoRoom))
	s.Empty(empty.FlatTypes())
}

// Booking the last units notifies once per success and never goes negative.
func (s *UnitLedgerSuite) TestDecrementToExhaustion() {
	p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 2}, 1)
	n := &recordingNotifier{}

	s.True(p.DecrementAvailableUnits(s.ctx, FlatTypeTwoRoom, n))
	s.True(p.DecrementAvailableUnits(s.ctx, FlatTypeTwoRoom, n))
	s.False(p.DecrementAvailableUnits(s.ctx, FlatTypeTwoRoom, n))

	s.Equal(0, p.AvailableUnitsByType(FlatTypeTwoRoom))
	s.Equal([]FlatType{FlatTypeTwoRoom, FlatTypeTwoRoom}, n.calls)
	s.Equal([]int{1, 0}, n.availableSeen, "notifier sees the post-booking ledger")
	s.True(errors.Is(p.CanDecrementAvailableUnits(FlatTypeTwoRoom), ErrNoUnitsAvailable))
}

func (s *UnitLedgerSuite) TestDecrementUnregisteredType() {
	p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 2}, 1)
	n := &recordingNotifier{}

	s.False(p.DecrementAvailableUnits(s.ctx, FlatTypeThreeRoom, n))
	s.Empty(n.calls)
}

func (s *UnitLedgerSuite) TestDecrementWithoutNotifier() {
	p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 1}, 1)
	s.True(p.DecrementAvailableUnits(s.ctx, FlatTypeTwoRoom, nil))
	s.Equal(0, p.AvailableUnitsByType(FlatTypeTwoRoom))
}

func (s *UnitLedgerSuite) TestIncrementBoundedByTotal() {
	p := newTestProject(map[FlatType]int{FlatTypeThreeRoom: 2}, 1)

	s.False(p.IncrementAvailableUnits(FlatTypeThreeRoom), "already at total")
	s.True(errors.Is(p.CanIncrementAvailableUnits(FlatTypeThreeRoom), ErrAtCapacity))

	p.DecrementAvailableUnits(s.ctx, FlatTypeThreeRoom, nil)
	s.True(p.IncrementAvailableUnits(FlatTypeThreeRoom))
	s.Equal(2, p.AvailableUnitsByType(FlatTypeThreeRoom))
	s.False(p.IncrementAvailableUnits(FlatTypeTwoRoom), "unregistered type has total 0")
}

func (s *UnitLedgerSuite) TestSetNumberOfUnits() {
	s.Run("shrinking total pulls availability down", func() {
		p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 10}, 1)
		p.SetNumberOfUnitsByType(FlatTypeTwoRoom, 4)

		s.Equal(4, p.TotalUnitsByType(FlatTypeTwoRoom))
		s.Equal(4, p.AvailableUnitsByType(FlatTypeTwoRoom))
	})

	s.Run("growing total leaves availability alone", func() {
		p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 3}, 1)
		p.DecrementAvailableUnits(s.ctx, FlatTypeTwoRoom, nil)
		p.SetNumberOfUnitsByType(FlatTypeTwoRoom, 8)

		s.Equal(8, p.TotalUnitsByType(FlatTypeTwoRoom))
		s.Equal(2, p.AvailableUnitsByType(FlatTypeTwoRoom))
	})

	s.Run("new type starts with nothing available", func() {
		p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 3}, 1)
		p.SetNumberOfUnitsByType(FlatTypeThreeRoom, 5)

		s.True(p.HasFlatType(FlatTypeThreeRoom))
		s.Equal(0, p.AvailableUnitsByType(FlatTypeThreeRoom))
	})

	s.Run("negative count clamps to zero", func() {
		p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 3}, 1)
		p.SetNumberOfUnitsByType(FlatTypeTwoRoom, -2)

		s.Equal(0, p.TotalUnitsByType(FlatTypeTwoRoom))
		s.Equal(0, p.AvailableUnitsByType(FlatTypeTwoRoom))
		s.assertBounded(p)
	})
}

func (s *UnitLedgerSuite) TestSetAvailableClampsAndIsIdempotent() {
	p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 5}, 1)

	for _, tc := range []struct {
		in, want int
	}{
		{in: 3, want: 3},
		{in: 12, want: 5},
		{in: -7, want: 0},
		{in: 0, want: 0},
		{in: 5, want: 5},
	} {
		p.SetAvailableUnitsByType(FlatTypeTwoRoom, tc.in)
		first := p.AvailableUnitsByType(FlatTypeTwoRoom)
		p.SetAvailableUnitsByType(FlatTypeTwoRoom, tc.in)

		s.Equal(tc.want, first, "set %d", tc.in)
		s.Equal(first, p.AvailableUnitsByType(FlatTypeTwoRoom), "set %d twice", tc.in)
	}
}

// Any interleaving of ledger operations keeps availability within [0, total].
func (s *UnitLedgerSuite) TestMixedSequenceStaysBounded() {
	p := newTestProject(map[FlatType]int{FlatTypeTwoRoom: 3, FlatTypeThreeRoom: 1}, 1)
	ops := []func(){
		func() { p.DecrementAvailableUnits(s.ctx, FlatTypeTwoRoom, nil) },
		func() { p.IncrementAvailableUnits(FlatTypeThreeRoom) },
		func() { p.SetNumberOfUnitsByType(FlatTypeTwoRoom, 1) },
		func() { p.DecrementAvailableUnits(s.ctx, FlatTypeTwoRoom, nil) },
		func() { p.DecrementAvailableUnits(s.ctx, FlatTypeTwoRoom, nil) },
		func() { p.SetAvailableUnitsByType(FlatTypeThreeRoom, 40) },
		func() { p.SetNumberOfUnitsByType(FlatTypeTwoRoom, 6) },
		func() { p.IncrementAvailableUnits(FlatTypeTwoRoom) },
		func() { p.SetNumberOfUnitsByType(FlatTypeThreeRoom, 0) },
	}
	for _, op := range ops {
		op()
		s.assertBounded(p)
	}
	s.Equal(1, p.AvailableUnitsByType(FlatTypeTwoRoom))
	s.Equal(0, p.AvailableUnitsByType(FlatTypeThreeRoom))
}
