package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/api"
	"github.com/pkillboredom/MA210-Roulette/internal/backends"
	"github.com/pkillboredom/MA210-Roulette/internal/config"
	"github.com/pkillboredom/MA210-Roulette/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("error: %v", err)
	}

	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address")
	flag.StringVar(&cfg.DBDriver, "db", cfg.DBDriver, "session store driver (sqlite|postgres|none)")
	flag.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database path")
	maxRounds := flag.Int("max-rounds", api.DefaultLimits.MaxRounds, "largest max_rounds a request may ask for")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		config.Exitf("error: %v", err)
	}

	log, err := logger.New("betsim-api", cfg.Env)
	if err != nil {
		config.Exitf("error: build logger: %v", err)
	}
	defer log.Sync()

	info := api.GetVersionInfo()
	log.Info("starting service",
		zap.String("version", info.EngineVersion),
		zap.String("commit", info.GitCommit),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := backends.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open backends", zap.Error(err))
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("close backends", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := api.NewServer(api.Deps{
		DB:       b.DB,
		Board:    b.Board,
		Registry: reg,
		Kafka:    b.MessageWriter(),
		Logger:   log,
		Limits:   api.Limits{MaxRounds: *maxRounds},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api srv", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}
}
