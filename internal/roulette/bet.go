package roulette

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrWrongSpaceCount means a multi-space wager was not 2 or 4 spaces.
	ErrWrongSpaceCount = errors.New("roulette: split takes 2 spaces and corner takes 4")
	// ErrNotNumbered means a multi-space wager included zero or a grouping.
	ErrNotNumbered = errors.New("roulette: split and corner take numbered pockets 1-36 only")
	// ErrNotAdjacent means two paired pockets do not touch on the layout.
	ErrNotAdjacent = errors.New("roulette: pockets are not adjacent")
	// ErrOutOfOrder means corner pockets were not given in increasing order.
	ErrOutOfOrder = errors.New("roulette: corner pockets must be in increasing order")
)

// Adjacent reports whether a and b sit side by side in the same row of the
// three-column layout. The %3 checks reject pairs like 3 and 4 that are
// numerically consecutive but wrap across the column edge.
func Adjacent(a, b int) bool {
	return (b == a+1 && a%3 != 0) || (b == a-1 && b%3 != 0)
}

// ValidateMulti checks whether spaces form a legal split (2) or corner (4)
// wager and returns the reason when they do not.
func ValidateMulti(spaces []Space) error {
	if len(spaces) != 2 && len(spaces) != 4 {
		return fmt.Errorf("%w: got %d", ErrWrongSpaceCount, len(spaces))
	}

	values := make([]int, len(spaces))
	for i, s := range spaces {
		p, ok := s.(Primitive)
		if !ok || p.Value <= 0 || p.Value > MaxValue {
			return fmt.Errorf("%w: %s", ErrNotNumbered, spaceLabel(s))
		}
		values[i] = p.Value
	}

	if len(values) == 2 {
		if !Adjacent(values[0], values[1]) {
			return fmt.Errorf("%w: %d and %d", ErrNotAdjacent, values[0], values[1])
		}
		return nil
	}

	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return fmt.Errorf("%w: %v", ErrOutOfOrder, values)
		}
	}
	if !Adjacent(values[0], values[1]) {
		return fmt.Errorf("%w: %d and %d", ErrNotAdjacent, values[0], values[1])
	}
	if !Adjacent(values[2], values[3]) {
		return fmt.Errorf("%w: %d and %d", ErrNotAdjacent, values[2], values[3])
	}
	return nil
}

func spaceLabel(s Space) string {
	if s == nil {
		return "<nil>"
	}
	return s.Name()
}

// multiComposite builds the split or corner grouping for already validated
// spaces.
func multiComposite(spaces []Space) *Composite {
	values := make([]int, len(spaces))
	parts := make([]string, len(spaces))
	for i, s := range spaces {
		values[i] = s.(Primitive).Value
		parts[i] = strconv.Itoa(values[i])
	}

	category, prefix := CategorySplit, "split"
	if len(spaces) == 4 {
		category, prefix = CategoryCorner, "corner"
	}
	return newComposite(prefix+":"+strings.Join(parts, "-"), category, values)
}

// Bet binds one space and a stake for a single round. The zero value is an
// unplaced bet that wins nothing.
type Bet struct {
	space Space
	stake decimal.Decimal
}

// Place binds space and stake, replacing any prior binding.
func (b *Bet) Place(space Space, stake decimal.Decimal) {
	b.space = space
	b.stake = stake
}

// PlaceMulti binds a split or corner over spaces. It returns false and
// leaves the current binding untouched when the geometry is illegal.
func (b *Bet) PlaceMulti(spaces []Space, stake decimal.Decimal) bool {
	if err := ValidateMulti(spaces); err != nil {
		return false
	}
	b.space = multiComposite(spaces)
	b.stake = stake
	return true
}

// Evaluate returns the net winnings for a ball landing on rolled: stake
// times multiplier when the bound space covers the rolled value, zero
// otherwise. Matching is by value.
func (b *Bet) Evaluate(rolled Primitive) decimal.Decimal {
	if b.space == nil || !b.space.Covers(rolled.Value) {
		return decimal.Zero
	}
	return b.stake.Mul(decimal.NewFromInt(b.space.Multiplier()))
}

// Space returns the bound space, or nil before the first placement.
func (b *Bet) Space() Space { return b.space }

// Stake returns the bound stake.
func (b *Bet) Stake() decimal.Decimal { return b.stake }

// Active reports whether a space has been bound.
func (b *Bet) Active() bool { return b.space != nil }
