package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognized names.
var ErrUnknownStrategy = errors.New("sim: unknown strategy")

// RandomStrategy bets on a uniformly drawn target from the 49 outcomes.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) Pick(_ context.Context, table *roulette.Table, _ State) ([]roulette.Space, error) {
	s, err := table.PickBetTarget()
	if err != nil {
		return nil, err
	}
	return []roulette.Space{s}, nil
}

// FixedStrategy bets on the same target every round.
type FixedStrategy struct {
	target roulette.Space
}

// NewFixedStrategy resolves target once; see roulette.Catalog.Lookup for
// the accepted names.
func NewFixedStrategy(target string) (*FixedStrategy, error) {
	s, err := roulette.NewCatalog().Lookup(target)
	if err != nil {
		return nil, fmt.Errorf("fixed strategy: %w", err)
	}
	return &FixedStrategy{target: s}, nil
}

// Name is filesystem safe so it can prefix output files.
func (f *FixedStrategy) Name() string {
	return "fixed-" + strings.ReplaceAll(f.target.Name(), ":", "-")
}

func (f *FixedStrategy) Pick(context.Context, *roulette.Table, State) ([]roulette.Space, error) {
	return []roulette.Space{f.target}, nil
}

// Target returns the space bet on every round.
func (f *FixedStrategy) Target() roulette.Space { return f.target }

// ParseStrategy builds the built-in strategies: "random" and
// "fixed:<target>".
func ParseStrategy(input string) (Strategy, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "" || strings.EqualFold(input, "random"):
		return RandomStrategy{}, nil
	case strings.HasPrefix(strings.ToLower(input), "fixed:"):
		return NewFixedStrategy(input[len("fixed:"):])
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, input)
}
