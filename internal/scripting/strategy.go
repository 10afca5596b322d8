package scripting

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// Strategy calls the script's pick() once per attempt. pick() may return a
// target name ("red", "17", "split:1-2"), a pocket number, or an array of
// two or four pocket numbers for a split or corner.
type Strategy struct {
	name    string
	vm      *VM
	catalog *roulette.Catalog
}

var (
	_ sim.Strategy = (*Strategy)(nil)
	_ sim.Stopper  = (*Strategy)(nil)
)

// NewStrategy executes source and checks that it defines pick().
func NewStrategy(name, source string, log *zap.Logger) (*Strategy, error) {
	vm := NewVM(log)
	if err := vm.Execute(source); err != nil {
		return nil, err
	}
	if !vm.HasFunc("pick") {
		return nil, fmt.Errorf("script must define a pick() function")
	}
	return &Strategy{name: name, vm: vm, catalog: roulette.NewCatalog()}, nil
}

func (s *Strategy) Name() string { return "script-" + s.name }

func (s *Strategy) Pick(_ context.Context, _ *roulette.Table, state sim.State) ([]roulette.Space, error) {
	s.vm.SetGlobals(stateGlobals(state))
	v, err := s.vm.Call("pick")
	if err != nil {
		return nil, err
	}
	return s.toSpaces(v)
}

// StopRequested reports whether the script called stop().
func (s *Strategy) StopRequested() bool { return s.vm.StopRequested() }

// Logs returns the script's log() output.
func (s *Strategy) Logs() []LogEntry { return s.vm.Logs() }

func (s *Strategy) toSpaces(v goja.Value) ([]roulette.Space, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("%w: pick() returned nothing", sim.ErrInvalidTarget)
	}

	switch x := v.Export().(type) {
	case string:
		sp, err := s.catalog.Lookup(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", sim.ErrInvalidTarget, err)
		}
		return []roulette.Space{sp}, nil
	case []any:
		out := make([]roulette.Space, len(x))
		for i, el := range x {
			p, err := s.pocket(el)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	default:
		p, err := s.pocket(x)
		if err != nil {
			return nil, err
		}
		return []roulette.Space{p}, nil
	}
}

func (s *Strategy) pocket(v any) (roulette.Primitive, error) {
	var n int
	switch x := v.(type) {
	case int64:
		n = int(x)
	case float64:
		if x != math.Trunc(x) {
			return roulette.Primitive{}, fmt.Errorf("%w: %v is not a pocket", sim.ErrInvalidTarget, x)
		}
		n = int(x)
	default:
		return roulette.Primitive{}, fmt.Errorf("%w: unsupported pick() result %T", sim.ErrInvalidTarget, v)
	}
	p, err := s.catalog.Primitive(n)
	if err != nil {
		return roulette.Primitive{}, fmt.Errorf("%w: %w", sim.ErrInvalidTarget, err)
	}
	return p, nil
}

// ResolveStrategy extends sim.ParseStrategy with "script:<path>".
func ResolveStrategy(input string, log *zap.Logger) (sim.Strategy, error) {
	path, ok := strings.CutPrefix(strings.TrimSpace(input), "script:")
	if !ok {
		return sim.ParseStrategy(input)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewStrategy(name, string(src), log)
}
