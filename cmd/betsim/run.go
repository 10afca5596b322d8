package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/backends"
	"github.com/pkillboredom/MA210-Roulette/internal/config"
	"github.com/pkillboredom/MA210-Roulette/internal/engine"
	"github.com/pkillboredom/MA210-Roulette/internal/record"
	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
	"github.com/pkillboredom/MA210-Roulette/internal/scripting"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
	"github.com/pkillboredom/MA210-Roulette/internal/store"
)

type app struct {
	log      *zap.Logger
	backends *backends.Backends
	now      func() time.Time
}

func newApp(log *zap.Logger, b *backends.Backends) *app {
	return &app{log: log, backends: b, now: time.Now}
}

// report is what a single run prints.
type report struct {
	Result     sim.Result
	SessionID  string
	CSVPath    string
	Seeds      *engine.Seeds
	NonceStart uint64
	NonceEnd   uint64
}

// source returns the table's randomness: the seeded stream when a server
// seed is configured, crypto/rand otherwise.
func source(cfg config.Config, nonce uint64) (engine.Source, *engine.Seeds) {
	if !cfg.Seeded() {
		return engine.NewCryptoSource(), nil
	}
	seeds := engine.Seeds{Server: cfg.ServerSeed, Client: cfg.ClientSeed}
	if seeds.Client == "" {
		seeds.Client = uuid.NewString()
	}
	return engine.NewSeededSource(seeds, nonce), &seeds
}

func simConfig(cfg config.Config) sim.Config {
	return sim.Config{StartBalance: cfg.StartBalance, Stake: cfg.Stake, MaxRounds: cfg.MaxRounds}
}

// runSingle plays one run and writes its rounds to every enabled recorder.
// Recorders are opened before the first round so an unwritable output
// aborts the run early.
func (a *app) runSingle(ctx context.Context, opts options) (*report, error) {
	cfg := opts.cfg
	strategy, err := scripting.ResolveStrategy(cfg.Strategy, a.log)
	if err != nil {
		return nil, err
	}
	src, seeds := source(cfg, opts.nonce)
	rep := &report{Seeds: seeds, NonceStart: opts.nonce}

	var csvRec *record.CSVRecorder
	if !opts.noCSV {
		csvRec, err = record.NewCSV(cfg.OutputDir, strategy.Name(), a.now())
		if err != nil {
			return nil, err
		}
		rep.CSVPath = csvRec.Path()
	}

	var sessionRec *record.SessionRecorder
	if db := a.backends.DB; db != nil {
		sess := &store.Session{
			Strategy:     strategy.Name(),
			NonceStart:   opts.nonce,
			StartBalance: cfg.StartBalance,
			Stake:        cfg.Stake,
			MaxRounds:    cfg.MaxRounds,
		}
		if seeds != nil {
			sess.ServerSeedHash = engine.HashServerSeed(seeds.Server)
			sess.ClientSeed = seeds.Client
		}
		id, err := db.CreateSession(ctx, sess)
		if err != nil {
			if csvRec != nil {
				csvRec.Close()
			}
			return nil, err
		}
		rep.SessionID = id
		sessionRec = record.NewSessionRecorder(db, id, 0)
	}

	var kafkaRec record.Recorder
	if w := a.backends.MessageWriter(); w != nil {
		key := rep.SessionID
		if key == "" {
			key = uuid.NewString()
		}
		kafkaRec = record.NewKafkaPublisher(record.SharedWriter(w), key, strategy.Name(), a.log)
	}

	// Typed nils must not reach Multi.
	var recorders []record.Recorder
	if csvRec != nil {
		recorders = append(recorders, csvRec)
	}
	if sessionRec != nil {
		recorders = append(recorders, sessionRec)
	}
	sink := record.Multi(append(recorders, kafkaRec)...)

	table := roulette.BuildTable(roulette.WithSource(src))
	runner, err := sim.NewRunner(simConfig(cfg), table, strategy,
		sim.WithSink(sink),
		sim.WithLogger(a.log),
	)
	if err != nil {
		sink.Close()
		return nil, err
	}

	res, runErr := runner.Run(ctx)
	closeErr := sink.Close()
	rep.Result = res
	if s, ok := src.(*engine.SeededSource); ok {
		rep.NonceEnd = s.Nonce()
	}

	if runErr != nil {
		a.endSession(rep.SessionID, store.SessionEnd{FinalState: "error"})
		return nil, runErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close recorders: %w", closeErr)
	}

	a.endSession(rep.SessionID, store.EndFromResult(res))
	if rep.SessionID != "" {
		if err := a.backends.Board.Submit(context.WithoutCancel(ctx), rep.SessionID, res.Stats.Profit); err != nil {
			a.log.Warn("leaderboard submit", zap.Error(err))
		}
	}
	return rep, nil
}

func (a *app) endSession(id string, end store.SessionEnd) {
	if id == "" || a.backends.DB == nil {
		return
	}
	if err := a.backends.DB.EndSession(context.Background(), id, end); err != nil {
		a.log.Error("end session", zap.String("session_id", id), zap.Error(err))
	}
}

// runBatch plays n independent runs in parallel and summarizes them. Runs
// are not recorded. With seeds, run i uses the client seed "<client>-<i>"
// so every run draws from its own stream.
func (a *app) runBatch(ctx context.Context, cfg config.Config, n int) (sim.Summary, error) {
	client := cfg.ClientSeed
	if cfg.Seeded() && client == "" {
		client = uuid.NewString()
	}

	factory := func(i int) (*sim.Runner, error) {
		strategy, err := scripting.ResolveStrategy(cfg.Strategy, a.log)
		if err != nil {
			return nil, err
		}
		var src engine.Source = engine.NewCryptoSource()
		if cfg.Seeded() {
			src = engine.NewSeededSource(engine.Seeds{
				Server: cfg.ServerSeed,
				Client: fmt.Sprintf("%s-%d", client, i),
			}, 0)
		}
		table := roulette.BuildTable(roulette.WithSource(src))
		return sim.NewRunner(simConfig(cfg), table, strategy)
	}

	start := a.now()
	results, err := sim.RunBatch(ctx, n, factory)
	if err != nil {
		return sim.Summary{}, err
	}
	a.log.Info("batch finished",
		zap.Int("runs", n),
		zap.String("strategy", cfg.Strategy),
		zap.Duration("elapsed", a.now().Sub(start)),
	)
	return sim.Summarize(results), nil
}
