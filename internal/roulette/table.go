package roulette

import (
	"errors"
	"fmt"

	"github.com/pkillboredom/MA210-Roulette/internal/engine"
)

// TargetOutcomes is the size of the bet-target draw: every pocket plus the
// twelve fixed groupings.
const TargetOutcomes = PocketCount + int(groupCount)

// ErrDrawOutOfRange signals a generator returned a value outside the range
// it was asked for. It is a bug, not a recoverable condition.
var ErrDrawOutOfRange = errors.New("roulette: draw out of range")

// Table is one roulette table: an immutable catalog plus the randomness
// source that spins its wheel. A Table is not safe for concurrent use.
type Table struct {
	catalog *Catalog
	src     engine.Source
}

// Option configures BuildTable.
type Option func(*Table)

// WithSource replaces the default crypto/rand source.
func WithSource(src engine.Source) Option {
	return func(t *Table) {
		t.src = src
	}
}

// BuildTable constructs the catalog and attaches a randomness source.
func BuildTable(opts ...Option) *Table {
	t := &Table{catalog: NewCatalog()}
	for _, opt := range opts {
		opt(t)
	}
	if t.src == nil {
		t.src = engine.NewCryptoSource()
	}
	return t
}

// Catalog exposes the table's spaces.
func (t *Table) Catalog() *Catalog { return t.catalog }

// RollWheel draws one pocket uniformly from 0..36.
func (t *Table) RollWheel() (Primitive, error) {
	d, err := t.src.Intn(PocketCount)
	if err != nil {
		return Primitive{}, fmt.Errorf("roll wheel: %w", err)
	}
	if d < 0 || d >= PocketCount {
		return Primitive{}, fmt.Errorf("roll wheel: %w: %d", ErrDrawOutOfRange, d)
	}
	return t.catalog.primitives[d], nil
}

// PickBetTarget draws uniformly from 49 outcomes: 0..36 map to the pockets,
// 37..48 to the groupings in Groups() order.
func (t *Table) PickBetTarget() (Space, error) {
	d, err := t.src.Intn(TargetOutcomes)
	if err != nil {
		return nil, fmt.Errorf("pick bet target: %w", err)
	}
	s, err := t.catalog.TargetForDraw(d)
	if err != nil {
		return nil, fmt.Errorf("pick bet target: %w", err)
	}
	return s, nil
}

// Lookup resolves a target name against the table's catalog.
func (t *Table) Lookup(name string) (Space, error) {
	return t.catalog.Lookup(name)
}
