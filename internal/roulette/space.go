// Package roulette models a single-zero European roulette table: the betable
// spaces, their payout multipliers, wager validation and settlement.
package roulette

import (
	"fmt"
	"sort"
	"strconv"
)

const (
	// PocketCount is the number of pockets on a single-zero wheel.
	PocketCount = 37
	// MaxValue is the highest numbered pocket.
	MaxValue = 36

	// StraightMultiplier is the net payout for a single number.
	StraightMultiplier int64 = 35
)

// Category classifies a betable area.
type Category int

const (
	CategoryStraight Category = iota
	CategoryColumn
	CategoryDozen
	CategoryHalf
	CategoryParity
	CategoryColor
	CategorySplit
	CategoryCorner
)

func (c Category) String() string {
	switch c {
	case CategoryStraight:
		return "straight"
	case CategoryColumn:
		return "column"
	case CategoryDozen:
		return "dozen"
	case CategoryHalf:
		return "half"
	case CategoryParity:
		return "parity"
	case CategoryColor:
		return "color"
	case CategorySplit:
		return "split"
	case CategoryCorner:
		return "corner"
	default:
		return "unknown"
	}
}

// Space is a betable area. It is implemented only by Primitive and
// *Composite; use a type switch to tell them apart.
type Space interface {
	Name() string
	Category() Category
	Multiplier() int64
	// Covers reports whether a ball landing on value wins this space.
	Covers(value int) bool

	space()
}

// Primitive is one numbered pocket, 0 through 36.
type Primitive struct {
	Value int
}

func (p Primitive) Name() string { return strconv.Itoa(p.Value) }
func (Primitive) Category() Category { return CategoryStraight }
func (Primitive) Multiplier() int64 { return StraightMultiplier }
func (p Primitive) Covers(value int) bool { return p.Value == value }
func (Primitive) space() {}

// Composite covers several pockets and pays one aggregate multiplier. It is
// immutable once built.
type Composite struct {
	name       string
	category   Category
	values     []int
	multiplier int64
}

// MultiplierFor returns the payout multiplier for a grouping that covers
// count pockets. The second result is false for counts no bet can cover.
func MultiplierFor(count int) (int64, bool) {
	switch count {
	case 2:
		return 17, true
	case 4:
		return 8, true
	case 12:
		return 2, true
	case 18:
		return 1, true
	default:
		return 0, false
	}
}

func newComposite(name string, category Category, values []int) *Composite {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	multiplier, ok := MultiplierFor(len(sorted))
	if !ok {
		panic(fmt.Sprintf("roulette: no multiplier for a %d-pocket grouping", len(sorted)))
	}
	return &Composite{
		name:       name,
		category:   category,
		values:     sorted,
		multiplier: multiplier,
	}
}

func (c *Composite) Name() string { return c.name }
func (c *Composite) Category() Category { return c.category }
func (c *Composite) Multiplier() int64 { return c.multiplier }
func (*Composite) space() {}

func (c *Composite) Covers(value int) bool {
	i := sort.SearchInts(c.values, value)
	return i < len(c.values) && c.values[i] == value
}

// Values returns the covered pockets in ascending order.
func (c *Composite) Values() []int {
	return append([]int(nil), c.values...)
}

// Len is the number of covered pockets.
func (c *Composite) Len() int { return len(c.values) }

// Color is the felt color of a pocket.
type Color int

const (
	Green Color = iota
	Red
	Black
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return "green"
	}
}

// Red numbers: 1,3,5,7,9,12,14,16,18,19,21,23,25,27,30,32,34,36
var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true,
	12: true, 14: true, 16: true, 18: true, 19: true,
	21: true, 23: true, 25: true, 27: true, 30: true,
	32: true, 34: true, 36: true,
}

// ColorOf returns the color of pocket v. Zero and out-of-range values are
// green.
func ColorOf(v int) Color {
	if v <= 0 || v > MaxValue {
		return Green
	}
	if redNumbers[v] {
		return Red
	}
	return Black
}
