package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// RunnerFactory builds the runner for batch index i. Each call must return
// a runner with its own Table and randomness source.
type RunnerFactory func(i int) (*Runner, error)

// Summary aggregates a batch of runs.
type Summary struct {
	Runs         int             `json:"runs"`
	Busted       int             `json:"busted"`
	Stopped      int             `json:"stopped"`
	TotalRounds  int             `json:"total_rounds"`
	MeanRounds   float64         `json:"mean_rounds"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
	MeanProfit   decimal.Decimal `json:"mean_profit"`
	BestBalance  decimal.Decimal `json:"best_balance"`
	WorstBalance decimal.Decimal `json:"worst_balance"`
}

// RunBatch executes n independent runs in parallel, bounded by the CPU
// count. Results are returned in index order. The first error cancels the
// remaining runs.
func RunBatch(ctx context.Context, n int, factory RunnerFactory) ([]Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, n)
	}

	results := make([]Result, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := 0; i < n; i++ {
		g.Go(func() error {
			runner, err := factory(i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			res, err := runner.Run(gctx)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summarize folds batch results into a Summary.
func Summarize(results []Result) Summary {
	s := Summary{
		Runs:        len(results),
		TotalProfit: decimal.Zero,
		MeanProfit:  decimal.Zero,
	}
	for i, r := range results {
		switch r.Outcome {
		case OutcomeBust:
			s.Busted++
		case OutcomeStopped:
			s.Stopped++
		}
		if r.Stats != nil {
			s.TotalRounds += r.Stats.Rounds
			s.TotalProfit = s.TotalProfit.Add(r.Stats.Profit)
		}
		if i == 0 || r.FinalBalance.GreaterThan(s.BestBalance) {
			s.BestBalance = r.FinalBalance
		}
		if i == 0 || r.FinalBalance.LessThan(s.WorstBalance) {
			s.WorstBalance = r.FinalBalance
		}
	}
	if s.Runs > 0 {
		s.MeanRounds = float64(s.TotalRounds) / float64(s.Runs)
		s.MeanProfit = s.TotalProfit.DivRound(decimal.NewFromInt(int64(s.Runs)), 4)
	}
	return s
}
