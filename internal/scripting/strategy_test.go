package scripting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

func newStrategy(t *testing.T, src string) *Strategy {
	t.Helper()
	s, err := NewStrategy("test", src, nil)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}
	return s
}

func state(balance int64) sim.State {
	return sim.State{
		Round:    1,
		Balance:  decimal.NewFromInt(balance),
		Stake:    decimal.NewFromInt(5),
		Profit:   decimal.Zero,
		LastRoll: -1,
	}
}

func TestPickResults(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		names []string
	}{
		{"group name", `function pick() { return "red"; }`, []string{"red"}},
		{"constant", `function pick() { return DOZEN_2; }`, []string{"dozen-2"}},
		{"number", `function pick() { return 17; }`, []string{"17"}},
		{"numeric string", `function pick() { return "0"; }`, []string{"0"}},
		{"split name", `function pick() { return "split:1-2"; }`, []string{"split:1-2"}},
		{"corner array", `function pick() { return [1, 2, 4, 5]; }`, []string{"1", "2", "4", "5"}},
		{"uses balance", `function pick() { return balance > 100 ? "high" : "low"; }`, []string{"high"}},
		{"uses lastroll", `function pick() { return lastroll === null ? "odd" : "even"; }`, []string{"odd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStrategy(t, tt.src)
			spaces, err := s.Pick(context.Background(), nil, state(500))
			if err != nil {
				t.Fatalf("Pick: %v", err)
			}
			if len(spaces) != len(tt.names) {
				t.Fatalf("got %d spaces, want %d", len(spaces), len(tt.names))
			}
			for i, sp := range spaces {
				if sp.Name() != tt.names[i] {
					t.Errorf("space %d = %s, want %s", i, sp.Name(), tt.names[i])
				}
			}
		})
	}
}

func TestPickInvalidTargets(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown name", `function pick() { return "green"; }`},
		{"illegal split", `function pick() { return "split:3-4"; }`},
		{"out of range", `function pick() { return 37; }`},
		{"fraction", `function pick() { return 1.5; }`},
		{"nothing", `function pick() {}`},
		{"boolean", `function pick() { return true; }`},
		{"bad array element", `function pick() { return [1, "x"]; }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStrategy(t, tt.src)
			if _, err := s.Pick(context.Background(), nil, state(500)); !errors.Is(err, sim.ErrInvalidTarget) {
				t.Errorf("error = %v, want ErrInvalidTarget", err)
			}
		})
	}
}

func TestScriptErrors(t *testing.T) {
	if _, err := NewStrategy("x", `var nextbet = 1;`, nil); err == nil {
		t.Error("expected error for a script without pick()")
	}
	if _, err := NewStrategy("x", `function pick( {`, nil); err == nil {
		t.Error("expected syntax error")
	}

	s := newStrategy(t, `function pick() { throw new Error("nope"); }`)
	_, err := s.Pick(context.Background(), nil, state(500))
	if err == nil || errors.Is(err, sim.ErrInvalidTarget) {
		t.Errorf("thrown error should be fatal, got %v", err)
	}
}

func TestSandbox(t *testing.T) {
	for _, src := range []string{
		`require("fs"); function pick() { return 1; }`,
		`eval("1"); function pick() { return 1; }`,
		`new Function("return 1")(); function pick() { return 1; }`,
	} {
		if _, err := NewStrategy("sandbox", src, nil); err == nil {
			t.Errorf("script %q should fail in the sandbox", src)
		}
	}
}

func TestPickTimeout(t *testing.T) {
	s := newStrategy(t, `function pick() { while (true) {} }`)
	s.vm.callTimeout = 50 * time.Millisecond

	_, err := s.Pick(context.Background(), nil, state(500))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestPickTimeoutReleasesVM(t *testing.T) {
	s := newStrategy(t, `var spin = true; function pick() { while (spin) {} return "red"; }`)
	s.vm.callTimeout = 50 * time.Millisecond

	if _, err := s.Pick(context.Background(), nil, state(500)); !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}

	// The interrupted call must have returned and released the runtime.
	released := make(chan bool, 1)
	go func() { released <- s.vm.HasFunc("pick") }()
	select {
	case ok := <-released:
		if !ok {
			t.Fatal("pick() lost after timeout")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runtime still held by the timed out call")
	}

	s.vm.SetGlobals(map[string]any{"spin": false})
	spaces, err := s.Pick(context.Background(), nil, state(500))
	if err != nil {
		t.Fatalf("Pick after timeout: %v", err)
	}
	if len(spaces) != 1 || spaces[0].Name() != "red" {
		t.Fatalf("Pick after timeout = %v, want red", spaces)
	}
}

func TestLogAndStop(t *testing.T) {
	s := newStrategy(t, `
		function pick() {
			log("round", round, "balance", balance);
			if (round >= 2) { stop(); }
			return "black";
		}`)

	st := state(500)
	if _, err := s.Pick(context.Background(), nil, st); err != nil {
		t.Fatal(err)
	}
	if s.StopRequested() {
		t.Fatal("stop requested too early")
	}
	st.Round = 2
	if _, err := s.Pick(context.Background(), nil, st); err != nil {
		t.Fatal(err)
	}
	if !s.StopRequested() {
		t.Error("stop() was not observed")
	}

	logs := s.Logs()
	if len(logs) != 2 || logs[0].Message != "round 1 balance 500" {
		t.Errorf("logs = %+v", logs)
	}
}

type fixedDraws struct{ v int }

func (f fixedDraws) Intn(int) (int, error) { return f.v, nil }

func TestScriptDrivesRunner(t *testing.T) {
	s := newStrategy(t, `
		function pick() {
			if (round === 3) { stop(); }
			return lastwin ? [1, 2] : "17";
		}`)
	table := roulette.BuildTable(roulette.WithSource(fixedDraws{v: 17}))
	cfg := sim.Config{StartBalance: decimal.NewFromInt(500), Stake: decimal.NewFromInt(5), MaxRounds: 10}

	var rounds []sim.Round
	sink := sim.SinkFunc(func(_ context.Context, r sim.Round) error {
		rounds = append(rounds, r)
		return nil
	})
	r, err := sim.NewRunner(cfg, table, s, sim.WithSink(sink))
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Outcome != sim.OutcomeStopped || len(rounds) != 3 {
		t.Fatalf("outcome %s after %d rounds", res.Outcome, len(rounds))
	}
	wantTargets := []string{"17", "split:1-2", "17"}
	for i, want := range wantTargets {
		if rounds[i].Target != want {
			t.Errorf("round %d target = %s, want %s", i+1, rounds[i].Target, want)
		}
	}
	if res.Strategy != "script-test" {
		t.Errorf("strategy name = %q", res.Strategy)
	}
}

func TestResolveStrategy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "always-red.js")
	if err := os.WriteFile(path, []byte(`function pick() { return RED; }`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := ResolveStrategy("script:"+path, nil)
	if err != nil {
		t.Fatalf("ResolveStrategy: %v", err)
	}
	if s.Name() != "script-always-red" {
		t.Errorf("Name = %q", s.Name())
	}

	if s, err := ResolveStrategy("fixed:red", nil); err != nil || s.Name() != "fixed-red" {
		t.Errorf("fixed: %v, %v", s, err)
	}
	if _, err := ResolveStrategy("script:"+filepath.Join(dir, "missing.js"), nil); err == nil {
		t.Error("expected error for missing script")
	}
}

func TestConstName(t *testing.T) {
	if got := constName("column-a"); got != "COLUMN_A" {
		t.Errorf("constName = %q", got)
	}
}
