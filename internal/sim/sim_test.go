package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pkillboredom/MA210-Roulette/internal/engine"
	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
)

// wheelSource returns scripted draws and repeats the last one.
type wheelSource struct {
	draws []int
}

func (w *wheelSource) Intn(int) (int, error) {
	d := w.draws[0]
	if len(w.draws) > 1 {
		w.draws = w.draws[1:]
	}
	return d, nil
}

type collectSink struct {
	rounds []Round
}

func (c *collectSink) Record(_ context.Context, r Round) error {
	c.rounds = append(c.rounds, r)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestRunner(t *testing.T, cfg Config, draws []int, strategy Strategy, sink Sink) *Runner {
	t.Helper()
	table := roulette.BuildTable(roulette.WithSource(&wheelSource{draws: draws}))
	r, err := NewRunner(cfg, table, strategy, WithSink(sink))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func mustFixed(t *testing.T, target string) *FixedStrategy {
	t.Helper()
	s, err := NewFixedStrategy(target)
	if err != nil {
		t.Fatalf("NewFixedStrategy(%q): %v", target, err)
	}
	return s
}

func TestRunAppliesWinnings(t *testing.T) {
	sink := &collectSink{}
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 2}
	r := newTestRunner(t, cfg, []int{17, 18}, mustFixed(t, "17"), sink)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(sink.rounds))
	}

	want := []struct{ before, won, after string }{
		{"500", "175", "670"},
		{"670", "0", "665"},
	}
	for i, w := range want {
		got := sink.rounds[i]
		if !got.BalanceBefore.Equal(dec(w.before)) || !got.Won.Equal(dec(w.won)) || !got.BalanceAfter.Equal(dec(w.after)) {
			t.Errorf("round %d = %s/%s/%s, want %s/%s/%s", i+1,
				got.BalanceBefore, got.Won, got.BalanceAfter, w.before, w.won, w.after)
		}
		if !got.Stake.Equal(dec("5")) {
			t.Errorf("round %d stake = %s", i+1, got.Stake)
		}
	}
	if res.Outcome != OutcomeMaxRounds {
		t.Errorf("outcome = %s, want %s", res.Outcome, OutcomeMaxRounds)
	}
	if !res.FinalBalance.Equal(dec("665")) {
		t.Errorf("final balance = %s, want 665", res.FinalBalance)
	}
	if res.Stats.Wins != 1 || res.Stats.Losses != 1 {
		t.Errorf("wins/losses = %d/%d", res.Stats.Wins, res.Stats.Losses)
	}
	if !res.Stats.Profit.Equal(dec("165")) {
		t.Errorf("profit = %s, want 165", res.Stats.Profit)
	}
}

func TestRunCornerBet(t *testing.T) {
	sink := &collectSink{}
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 1}
	r := newTestRunner(t, cfg, []int{4}, mustFixed(t, "corner:1-2-4-5"), sink)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sink.rounds[0]; !got.Won.Equal(dec("40")) || got.Multiplier != 8 || got.Target != "corner:1-2-4-5" {
		t.Errorf("round = %+v", got)
	}
}

func TestRunTermination(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		stake   string
		max     int
		rounds  int
		outcome Outcome
	}{
		{"stops when stake would empty the bankroll", "10", "5", 100, 1, OutcomeBust},
		{"stops before an uncoverable stake", "12", "5", 100, 2, OutcomeBust},
		{"never starts when stake equals balance", "5", "5", 100, 0, OutcomeBust},
		{"stops at max rounds", "500", "5", 3, 3, OutcomeMaxRounds},
		{"fractional stakes", "1.00", "0.25", 100, 3, OutcomeBust},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &collectSink{}
			cfg := Config{StartBalance: dec(tt.start), Stake: dec(tt.stake), MaxRounds: tt.max}
			// always rolls 0 against a bet on 17
			r := newTestRunner(t, cfg, []int{0}, mustFixed(t, "17"), sink)

			res, err := r.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(sink.rounds) != tt.rounds {
				t.Errorf("rounds = %d, want %d", len(sink.rounds), tt.rounds)
			}
			if len(sink.rounds) > tt.max {
				t.Errorf("emitted %d records, more than max %d", len(sink.rounds), tt.max)
			}
			if res.Outcome != tt.outcome {
				t.Errorf("outcome = %s, want %s", res.Outcome, tt.outcome)
			}
		})
	}
}

func TestRunRandomStrategyRespectsLimits(t *testing.T) {
	seeds := engine.Seeds{Server: "test_server_seed", Client: "test_client_seed"}
	for _, limit := range []int{1, 10, 250} {
		sink := &collectSink{}
		table := roulette.BuildTable(roulette.WithSource(engine.NewSeededSource(seeds, 0)))
		cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: limit}
		r, err := NewRunner(cfg, table, RandomStrategy{}, WithSink(sink))
		if err != nil {
			t.Fatalf("NewRunner: %v", err)
		}
		res, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(sink.rounds) > limit || res.Stats.Rounds != len(sink.rounds) {
			t.Errorf("limit %d: %d records, %d counted", limit, len(sink.rounds), res.Stats.Rounds)
		}
		for i, round := range sink.rounds {
			if !round.BalanceAfter.Equal(round.BalanceBefore.Sub(round.Stake).Add(round.Won)) {
				t.Errorf("round %d does not balance: %+v", i+1, round)
			}
			if i > 0 && !round.BalanceBefore.Equal(sink.rounds[i-1].BalanceAfter) {
				t.Errorf("round %d starts at %s, previous ended at %s", i+1, round.BalanceBefore, sink.rounds[i-1].BalanceAfter)
			}
		}
	}
}

// pickSequence returns the queued picks in order, then keeps returning the
// last one.
type pickSequence struct {
	picks [][]roulette.Space
	errs  []error
	calls int
}

func (p *pickSequence) Name() string { return "sequence" }

func (p *pickSequence) Pick(context.Context, *roulette.Table, State) ([]roulette.Space, error) {
	i := p.calls
	if i >= len(p.picks) {
		i = len(p.picks) - 1
	}
	p.calls++
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	return p.picks[i], err
}

func prims(values ...int) []roulette.Space {
	out := make([]roulette.Space, len(values))
	for i, v := range values {
		out[i] = roulette.Primitive{Value: v}
	}
	return out
}

func TestRunRetriesInvalidTargets(t *testing.T) {
	strategy := &pickSequence{
		picks: [][]roulette.Space{prims(3, 4), nil, prims(0, 1), prims(1, 2)},
	}
	sink := &collectSink{}
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 1}
	r := newTestRunner(t, cfg, []int{2}, strategy, sink)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strategy.calls != 4 {
		t.Errorf("strategy called %d times, want 4", strategy.calls)
	}
	if got := sink.rounds[0]; got.Target != "split:1-2" || !got.Won.Equal(dec("85")) {
		t.Errorf("round = %+v", got)
	}
}

func TestRunGivesUpOnInvalidTargets(t *testing.T) {
	strategy := &pickSequence{picks: [][]roulette.Space{prims(3, 4)}}
	sink := &collectSink{}
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 10}
	r := newTestRunner(t, cfg, []int{2}, strategy, sink)

	_, err := r.Run(context.Background())
	if !errors.Is(err, ErrNoValidTarget) {
		t.Fatalf("error = %v, want ErrNoValidTarget", err)
	}
	if strategy.calls != maxPickAttempts {
		t.Errorf("strategy called %d times, want %d", strategy.calls, maxPickAttempts)
	}
	if len(sink.rounds) != 0 {
		t.Errorf("recorded %d rounds", len(sink.rounds))
	}
}

func TestRunRetriesWrappedInvalidTarget(t *testing.T) {
	strategy := &pickSequence{
		picks: [][]roulette.Space{nil, prims(17)},
		errs:  []error{ErrInvalidTarget},
	}
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 1}
	r := newTestRunner(t, cfg, []int{17}, strategy, &collectSink{})
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunAbortsOnOutOfRangeDraw(t *testing.T) {
	sink := &collectSink{}
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 5}
	r := newTestRunner(t, cfg, []int{37}, mustFixed(t, "red"), sink)

	_, err := r.Run(context.Background())
	if !errors.Is(err, roulette.ErrDrawOutOfRange) {
		t.Fatalf("error = %v, want ErrDrawOutOfRange", err)
	}
	if len(sink.rounds) != 0 {
		t.Errorf("recorded %d rounds after a fatal draw", len(sink.rounds))
	}
}

func TestRunSinkErrorAborts(t *testing.T) {
	boom := errors.New("disk full")
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 5}
	sink := SinkFunc(func(context.Context, Round) error { return boom })
	r := newTestRunner(t, cfg, []int{1}, RandomStrategy{}, sink)

	if _, err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestRunWithNilLogger(t *testing.T) {
	table := roulette.BuildTable(roulette.WithSource(&wheelSource{draws: []int{17}}))
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 1}
	r, err := NewRunner(cfg, table, mustFixed(t, "17"), WithLogger(nil))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.FinalBalance.Equal(dec("670")) {
		t.Errorf("final balance = %s, want 670", res.FinalBalance)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 5}
	r := newTestRunner(t, cfg, []int{1}, mustFixed(t, "1"), nil)

	if _, err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

type stoppingStrategy struct {
	FixedStrategy
	after int
	seen  int
}

func (s *stoppingStrategy) Pick(ctx context.Context, t *roulette.Table, st State) ([]roulette.Space, error) {
	s.seen++
	return s.FixedStrategy.Pick(ctx, t, st)
}

func (s *stoppingStrategy) StopRequested() bool { return s.seen >= s.after }

func TestRunStopsWhenStrategyAsks(t *testing.T) {
	strategy := &stoppingStrategy{FixedStrategy: *mustFixed(t, "odd"), after: 3}
	sink := &collectSink{}
	cfg := Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 100}
	r := newTestRunner(t, cfg, []int{1}, strategy, sink)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcome != OutcomeStopped || len(sink.rounds) != 3 {
		t.Errorf("outcome %s after %d rounds, want stopped after 3", res.Outcome, len(sink.rounds))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 10}, true},
		{"zero stake", Config{StartBalance: dec("500"), Stake: dec("0"), MaxRounds: 10}, false},
		{"negative balance", Config{StartBalance: dec("-1"), Stake: dec("5"), MaxRounds: 10}, false},
		{"no rounds", Config{StartBalance: dec("500"), Stake: dec("5"), MaxRounds: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input string
		name  string
		err   bool
	}{
		{"", "random", false},
		{"Random", "random", false},
		{"fixed:17", "fixed-17", false},
		{"fixed:red", "fixed-red", false},
		{"FIXED:split:1-2", "fixed-split-1-2", false},
		{"fixed:split:3-4", "", true},
		{"martingale", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := ParseStrategy(tt.input)
			if tt.err {
				if err == nil {
					t.Errorf("ParseStrategy(%q) succeeded", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStrategy(%q): %v", tt.input, err)
			}
			if s.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.name)
			}
		})
	}
}
