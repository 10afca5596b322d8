package roulette

import (
	"errors"
	"fmt"
)

// ErrNoSuchPocket is returned for values outside 0..36.
var ErrNoSuchPocket = errors.New("roulette: no such pocket")

// Group is one of the twelve fixed outside-bet groupings.
type Group int

const (
	ColumnA Group = iota
	ColumnB
	ColumnC
	Dozen1
	Dozen2
	Dozen3
	Low
	High
	Even
	Odd
	RedGroup
	BlackGroup

	groupCount
)

var groupNames = [groupCount]string{
	ColumnA:    "column-a",
	ColumnB:    "column-b",
	ColumnC:    "column-c",
	Dozen1:     "dozen-1",
	Dozen2:     "dozen-2",
	Dozen3:     "dozen-3",
	Low:        "low",
	High:       "high",
	Even:       "even",
	Odd:        "odd",
	RedGroup:   "red",
	BlackGroup: "black",
}

func (g Group) String() string {
	if g < 0 || g >= groupCount {
		return fmt.Sprintf("group(%d)", int(g))
	}
	return groupNames[g]
}

// Groups lists every fixed grouping in canonical order.
func Groups() []Group {
	out := make([]Group, groupCount)
	for i := range out {
		out[i] = Group(i)
	}
	return out
}

// Catalog owns the primitive pockets and the fixed composite groupings of
// one table. It is read-only after NewCatalog returns.
type Catalog struct {
	primitives [PocketCount]Primitive
	groups     [groupCount]*Composite
}

// NewCatalog builds the full single-zero layout.
func NewCatalog() *Catalog {
	c := &Catalog{}
	for v := 0; v < PocketCount; v++ {
		c.primitives[v] = Primitive{Value: v}
	}

	c.groups[ColumnA] = newComposite(groupNames[ColumnA], CategoryColumn, numbered(func(v int) bool { return v%3 == 1 }))
	c.groups[ColumnB] = newComposite(groupNames[ColumnB], CategoryColumn, numbered(func(v int) bool { return v%3 == 2 }))
	c.groups[ColumnC] = newComposite(groupNames[ColumnC], CategoryColumn, numbered(func(v int) bool { return v%3 == 0 }))

	c.groups[Dozen1] = newComposite(groupNames[Dozen1], CategoryDozen, numbered(func(v int) bool { return v <= 12 }))
	c.groups[Dozen2] = newComposite(groupNames[Dozen2], CategoryDozen, numbered(func(v int) bool { return v >= 13 && v <= 24 }))
	c.groups[Dozen3] = newComposite(groupNames[Dozen3], CategoryDozen, numbered(func(v int) bool { return v >= 25 }))

	c.groups[Low] = newComposite(groupNames[Low], CategoryHalf, numbered(func(v int) bool { return v <= 18 }))
	c.groups[High] = newComposite(groupNames[High], CategoryHalf, numbered(func(v int) bool { return v >= 19 }))

	c.groups[Even] = newComposite(groupNames[Even], CategoryParity, numbered(func(v int) bool { return v%2 == 0 }))
	c.groups[Odd] = newComposite(groupNames[Odd], CategoryParity, numbered(func(v int) bool { return v%2 == 1 }))

	c.groups[RedGroup] = newComposite(groupNames[RedGroup], CategoryColor, numbered(func(v int) bool { return ColorOf(v) == Red }))
	c.groups[BlackGroup] = newComposite(groupNames[BlackGroup], CategoryColor, numbered(func(v int) bool { return ColorOf(v) == Black }))

	return c
}

// numbered collects the pockets 1..36 matching keep. Zero never qualifies.
func numbered(keep func(v int) bool) []int {
	var out []int
	for v := 1; v <= MaxValue; v++ {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Primitive returns the pocket with value v.
func (c *Catalog) Primitive(v int) (Primitive, error) {
	if v < 0 || v > MaxValue {
		return Primitive{}, fmt.Errorf("%w: %d", ErrNoSuchPocket, v)
	}
	return c.primitives[v], nil
}

// Primitives returns all 37 pockets in value order.
func (c *Catalog) Primitives() []Primitive {
	return append([]Primitive(nil), c.primitives[:]...)
}

// Group returns the composite for g, or nil if g is not a known grouping.
func (c *Catalog) Group(g Group) *Composite {
	if g < 0 || g >= groupCount {
		return nil
	}
	return c.groups[g]
}

// Composites returns the fixed groupings in canonical order.
func (c *Catalog) Composites() []*Composite {
	return append([]*Composite(nil), c.groups[:]...)
}

// TargetForDraw maps a bet-target draw in [0, TargetOutcomes) to its space.
func (c *Catalog) TargetForDraw(d int) (Space, error) {
	switch {
	case d >= 0 && d < PocketCount:
		return c.primitives[d], nil
	case d >= PocketCount && d < TargetOutcomes:
		return c.groups[d-PocketCount], nil
	}
	return nil, fmt.Errorf("%w: %d", ErrDrawOutOfRange, d)
}
