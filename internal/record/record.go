// Package record provides the sinks a simulation writes its rounds to.
package record

import (
	"context"

	"go.uber.org/multierr"

	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// Recorder is a sim.Sink that owns resources released by Close. Close
// flushes anything still buffered.
type Recorder interface {
	sim.Sink
	Close() error
}

type multi []Recorder

// Multi fans every round out to all recorders in order. Record stops at the
// first failure; Close closes every recorder and joins their errors.
func Multi(recorders ...Recorder) Recorder {
	out := make(multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Record(ctx context.Context, r sim.Round) error {
	for _, rec := range m {
		if err := rec.Record(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var err error
	for _, rec := range m {
		err = multierr.Append(err, rec.Close())
	}
	return err
}

// Discard drops every round.
type Discard struct{}

func (Discard) Record(context.Context, sim.Round) error { return nil }
func (Discard) Close() error                             { return nil }
