// Package backends opens the optional storage and streaming services named
// in a config.Config.
package backends

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/config"
	"github.com/pkillboredom/MA210-Roulette/internal/leaderboard"
	"github.com/pkillboredom/MA210-Roulette/internal/record"
	"github.com/pkillboredom/MA210-Roulette/internal/store"
)

// Backends holds the opened services. DB and Kafka are nil when disabled;
// Board falls back to an in-memory ranking without Redis.
type Backends struct {
	DB    store.DB
	Board leaderboard.Board
	Kafka *kafka.Writer

	redis *redis.Client
}

// Open connects every service cfg enables and migrates the database. On
// failure anything already opened is closed again.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (b *Backends, err error) {
	b = &Backends{}
	defer func() {
		if err != nil {
			err = multierr.Append(err, b.Close())
			b = nil
		}
	}()

	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := store.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			return b, err
		}
		b.DB = db
	case config.DriverPostgres:
		db, err := store.NewPostgresDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return b, err
		}
		b.DB = db
	case config.DriverNone:
	default:
		return b, fmt.Errorf("%w: unknown db driver %q", config.ErrInvalid, cfg.DBDriver)
	}
	if b.DB != nil {
		if err := b.DB.Migrate(ctx); err != nil {
			return b, err
		}
		log.Info("session store ready", zap.String("driver", cfg.DBDriver))
	}

	if cfg.RedisAddr != "" {
		rdb, err := leaderboard.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return b, err
		}
		b.redis = rdb
		b.Board = leaderboard.NewRedis(rdb)
		log.Info("redis leaderboard ready", zap.String("addr", cfg.RedisAddr))
	} else {
		b.Board = leaderboard.NewMemory()
	}

	if cfg.KafkaEnabled() {
		b.Kafka = record.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Info("kafka publisher ready",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}
	return b, nil
}

// Close releases every opened service.
func (b *Backends) Close() error {
	var err error
	if b.Kafka != nil {
		err = multierr.Append(err, b.Kafka.Close())
	}
	if b.redis != nil {
		err = multierr.Append(err, b.redis.Close())
	}
	if b.DB != nil {
		err = multierr.Append(err, b.DB.Close())
	}
	return err
}

// MessageWriter returns the Kafka writer as a record.MessageWriter, or nil
// when publishing is disabled.
func (b *Backends) MessageWriter() record.MessageWriter {
	if b.Kafka == nil {
		return nil
	}
	return b.Kafka
}
