// Package sim runs Monte-Carlo bankroll simulations against a roulette
// table: every round picks a target, places a fixed stake, spins the wheel
// and emits one Round to the configured sink.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/logger"
	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
)

// maxPickAttempts bounds how often a strategy may propose an illegal
// target within a single round.
const maxPickAttempts = 8

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("sim: invalid config")
	// ErrInvalidTarget is wrapped by strategies that produced a target the
	// table rejects. The runner retries the pick.
	ErrInvalidTarget = errors.New("sim: invalid bet target")
	// ErrNoValidTarget aborts a run whose strategy kept producing invalid
	// targets.
	ErrNoValidTarget = errors.New("sim: strategy produced no valid target")
)

// Config holds the fixed parameters of one run.
type Config struct {
	StartBalance decimal.Decimal
	Stake        decimal.Decimal
	MaxRounds    int
}

// Validate checks that the run can make progress and terminates.
func (c Config) Validate() error {
	switch {
	case !c.StartBalance.IsPositive():
		return fmt.Errorf("%w: start balance must be positive, got %s", ErrInvalidConfig, c.StartBalance)
	case !c.Stake.IsPositive():
		return fmt.Errorf("%w: stake must be positive, got %s", ErrInvalidConfig, c.Stake)
	case c.MaxRounds <= 0:
		return fmt.Errorf("%w: max rounds must be positive, got %d", ErrInvalidConfig, c.MaxRounds)
	}
	return nil
}

// Round is the flat per-round record.
type Round struct {
	Number        int             `json:"round"`
	Target        string          `json:"target"`
	Multiplier    int64           `json:"multiplier"`
	Rolled        int             `json:"rolled"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	Stake         decimal.Decimal `json:"stake"`
	Won           decimal.Decimal `json:"amount_won"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// Win reports whether the round paid out.
func (r Round) Win() bool { return r.Won.IsPositive() }

// State is what a strategy sees before choosing the next target.
type State struct {
	Round    int
	Balance  decimal.Decimal
	Stake    decimal.Decimal
	Profit   decimal.Decimal
	LastWin  bool
	LastRoll int // -1 before the first spin
}

// Strategy chooses the spaces to wager on each round. One space is a plain
// bet; two or four numbered pockets form a split or corner.
type Strategy interface {
	Name() string
	Pick(ctx context.Context, table *roulette.Table, state State) ([]roulette.Space, error)
}

// Stopper is implemented by strategies that can end a run early.
type Stopper interface {
	StopRequested() bool
}

// Sink receives every finished round in order.
type Sink interface {
	Record(ctx context.Context, r Round) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Round) error

func (f SinkFunc) Record(ctx context.Context, r Round) error { return f(ctx, r) }

// Outcome is why a run ended.
type Outcome string

const (
	OutcomeBust      Outcome = "bust"
	OutcomeMaxRounds Outcome = "max_rounds"
	OutcomeStopped   Outcome = "stopped"
)

// Result summarizes a finished run.
type Result struct {
	Strategy     string          `json:"strategy"`
	Outcome      Outcome         `json:"outcome"`
	FinalBalance decimal.Decimal `json:"final_balance"`
	Stats        *Statistics     `json:"stats"`
}

// Runner drives a single simulation. It is not safe for concurrent use;
// parallel runs each need their own Runner and Table.
type Runner struct {
	cfg      Config
	table    *roulette.Table
	strategy Strategy
	sink     Sink
	logger   *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink sets where rounds are emitted.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithLogger sets the runner's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger.OrNop(l) }
}

// NewRunner validates cfg and binds a table and strategy.
func NewRunner(cfg Config, table *roulette.Table, strategy Strategy, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil || strategy == nil {
		return nil, fmt.Errorf("%w: table and strategy are required", ErrInvalidConfig)
	}
	r := &Runner{
		cfg:      cfg,
		table:    table,
		strategy: strategy,
		logger:   logger.OrNop(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run plays rounds until the bankroll cannot cover another stake, the round
// limit is reached or the strategy asks to stop. Any error aborts the run;
// the partial statistics are still returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	stats := NewStatistics(r.cfg.StartBalance)
	res := Result{Strategy: r.strategy.Name(), Outcome: OutcomeMaxRounds, Stats: stats}

	balance := r.cfg.StartBalance
	state := State{Balance: balance, Stake: r.cfg.Stake, Profit: decimal.Zero, LastRoll: -1}

	r.logger.Info("simulation started",
		zap.String("strategy", res.Strategy),
		zap.String("start_balance", balance.String()),
		zap.String("stake", r.cfg.Stake.String()),
		zap.Int("max_rounds", r.cfg.MaxRounds),
	)

	for n := 1; n <= r.cfg.MaxRounds; n++ {
		if !balance.Sub(r.cfg.Stake).IsPositive() {
			res.Outcome = OutcomeBust
			break
		}
		if err := ctx.Err(); err != nil {
			res.FinalBalance = balance
			return res, err
		}

		state.Round = n
		bet, err := r.placeBet(ctx, state)
		if err != nil {
			res.FinalBalance = balance
			return res, fmt.Errorf("round %d: %w", n, err)
		}

		rolled, err := r.table.RollWheel()
		if err != nil {
			res.FinalBalance = balance
			return res, fmt.Errorf("round %d: %w", n, err)
		}

		won := bet.Evaluate(rolled)
		round := Round{
			Number:        n,
			Target:        bet.Space().Name(),
			Multiplier:    bet.Space().Multiplier(),
			Rolled:        rolled.Value,
			BalanceBefore: balance,
			Stake:         r.cfg.Stake,
			Won:           won,
			BalanceAfter:  balance.Sub(r.cfg.Stake).Add(won),
		}
		if r.sink != nil {
			if err := r.sink.Record(ctx, round); err != nil {
				res.FinalBalance = balance
				return res, fmt.Errorf("round %d: record: %w", n, err)
			}
		}
		stats.RecordRound(round)

		balance = round.BalanceAfter
		state.Balance = balance
		state.Profit = stats.Profit
		state.LastWin = round.Win()
		state.LastRoll = rolled.Value

		if s, ok := r.strategy.(Stopper); ok && s.StopRequested() {
			res.Outcome = OutcomeStopped
			break
		}
	}

	res.FinalBalance = balance
	r.logger.Info("simulation finished",
		zap.String("strategy", res.Strategy),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("rounds", stats.Rounds),
		zap.String("final_balance", balance.String()),
	)
	return res, nil
}

// placeBet asks the strategy for a target until the table accepts one.
func (r *Runner) placeBet(ctx context.Context, state State) (*roulette.Bet, error) {
	var bet roulette.Bet
	for attempt := 1; attempt <= maxPickAttempts; attempt++ {
		spaces, err := r.strategy.Pick(ctx, r.table, state)
		if err != nil {
			if errors.Is(err, ErrInvalidTarget) {
				r.logger.Debug("strategy produced invalid target", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("pick target: %w", err)
		}

		switch len(spaces) {
		case 0:
			r.logger.Debug("strategy produced no target", zap.Int("attempt", attempt))
			continue
		case 1:
			if spaces[0] == nil {
				continue
			}
			bet.Place(spaces[0], state.Stake)
			return &bet, nil
		default:
			if bet.PlaceMulti(spaces, state.Stake) {
				return &bet, nil
			}
			r.logger.Debug("strategy produced illegal split or corner",
				zap.Int("attempt", attempt),
				zap.Error(roulette.ValidateMulti(spaces)),
			)
		}
	}
	return nil, ErrNoValidTarget
}
