// Command betsim runs roulette bankroll simulations from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/backends"
	"github.com/pkillboredom/MA210-Roulette/internal/config"
	"github.com/pkillboredom/MA210-Roulette/internal/logger"
)

// options are the command-line settings layered over config.Config.
type options struct {
	cfg         config.Config
	runs        int
	nonce       uint64
	interactive bool
	noCSV       bool
}

func parseFlags(args []string, cfg config.Config) (options, error) {
	opts := options{cfg: cfg, runs: 1}
	fs := flag.NewFlagSet("betsim", flag.ContinueOnError)

	fs.StringVar(&opts.cfg.Strategy, "strategy", cfg.Strategy, `"random", "fixed:<target>" or "script:<file.js>"`)
	fs.TextVar(&opts.cfg.StartBalance, "balance", cfg.StartBalance, "starting balance")
	fs.TextVar(&opts.cfg.Stake, "stake", cfg.Stake, "stake per round")
	fs.IntVar(&opts.cfg.MaxRounds, "rounds", cfg.MaxRounds, "maximum rounds per run")
	fs.StringVar(&opts.cfg.OutputDir, "out", cfg.OutputDir, "directory for the per-round CSV file")
	fs.StringVar(&opts.cfg.DBDriver, "db", cfg.DBDriver, "session store driver (sqlite|postgres|none)")
	fs.StringVar(&opts.cfg.DBPath, "db-path", cfg.DBPath, "sqlite database path")
	fs.StringVar(&opts.cfg.ServerSeed, "server-seed", cfg.ServerSeed, "server seed for provably fair draws")
	fs.StringVar(&opts.cfg.ClientSeed, "client-seed", cfg.ClientSeed, "client seed (generated when empty)")
	fs.Uint64Var(&opts.nonce, "nonce", 0, "first nonce of the seeded stream")
	fs.IntVar(&opts.runs, "runs", 1, "number of independent runs; more than one runs a batch")
	fs.BoolVar(&opts.interactive, "i", false, "interactive menu")
	fs.BoolVar(&opts.noCSV, "no-csv", false, "skip writing the CSV file")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.runs <= 0 {
		return options{}, fmt.Errorf("%w: -runs must be positive", config.ErrInvalid)
	}
	if err := opts.cfg.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("error: %v", err)
	}
	opts, err := parseFlags(os.Args[1:], cfg)
	if err != nil {
		config.Exitf("error: %v", err)
	}

	log, err := logger.New("betsim", opts.cfg.Env)
	if err != nil {
		config.Exitf("error: build logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := backends.Open(ctx, opts.cfg, log)
	if err != nil {
		config.Exitf("error: %v", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("close backends", zap.Error(err))
		}
	}()

	a := newApp(log, b)
	if err := a.dispatch(ctx, opts); err != nil {
		log.Error("betsim failed", zap.Error(err))
		b.Close()
		log.Sync()
		config.Exitf("error: %v", err)
	}
}

func (a *app) dispatch(ctx context.Context, opts options) error {
	switch {
	case opts.interactive:
		return a.interactive(ctx, opts)
	case opts.runs > 1:
		summary, err := a.runBatch(ctx, opts.cfg, opts.runs)
		if err != nil {
			return err
		}
		printSummary(opts.cfg, summary)
		return nil
	default:
		report, err := a.runSingle(ctx, opts)
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	}
}
