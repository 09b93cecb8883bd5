package history

import (
	"slices"
	"time"
)

// Unit is a named group of ops that undo and redo treat atomically.
type Unit struct {
	Name string
	Ops  []Op

	start  time.Time
	last   time.Time
	typing bool
}

// Inverse returns the unit's inverse ops: each op inverted, in reverse
// application order.
func (u *Unit) Inverse() []Op {
	out := make([]Op, len(u.Ops))
	for i, op := range u.Ops {
		out[len(u.Ops)-1-i] = op.Invert()
	}
	return out
}

// Clone returns a deep copy of the unit.
func (u *Unit) Clone() *Unit {
	return &Unit{
		Name:   u.Name,
		Ops:    slices.Clone(u.Ops),
		start:  u.start,
		last:   u.last,
		typing: u.typing,
	}
}

// UnitInfo is read-only information about a recorded unit, for surfacing
// undo/redo availability to users.
type UnitInfo struct {
	Name     string
	OpCount  int
	Recorded time.Time
}

func (u *Unit) info() UnitInfo {
	return UnitInfo{Name: u.Name, OpCount: len(u.Ops), Recorded: u.start}
}
