package record

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/logger"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// RoundEvent is the message published for every round.
type RoundEvent struct {
	SessionID string `json:"session_id"`
	Strategy  string `json:"strategy"`
	sim.Round
	TsUnixMs int64 `json:"ts_unix_ms"`
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a writer for the round topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
	}
}

// KafkaPublisher streams rounds as JSON, keyed by session so one session
// stays on one partition.
type KafkaPublisher struct {
	writer    MessageWriter
	sessionID string
	strategy  string
	log       *zap.Logger
	now       func() time.Time
}

// NewKafkaPublisher wraps w for one session.
func NewKafkaPublisher(w MessageWriter, sessionID, strategy string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, sessionID: sessionID, strategy: strategy, log: logger.OrNop(log), now: time.Now}
}

func (p *KafkaPublisher) Record(ctx context.Context, r sim.Round) error {
	now := p.now()
	value, err := json.Marshal(RoundEvent{
		SessionID: p.sessionID,
		Strategy:  p.strategy,
		Round:     r,
		TsUnixMs:  now.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("record: marshal round event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(p.sessionID),
		Value: value,
		Time:  now,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish round", zap.String("session_id", p.sessionID), zap.Int("round", r.Number), zap.Error(err))
		return fmt.Errorf("record: publish round: %w", err)
	}

	p.log.Debug("published round", zap.String("session_id", p.sessionID), zap.Int("round", r.Number))
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// SharedWriter wraps a long-lived writer so that closing a publisher built
// on it leaves the writer open for other sessions.
func SharedWriter(w MessageWriter) MessageWriter { return sharedWriter{w} }

type sharedWriter struct{ MessageWriter }

func (sharedWriter) Close() error { return nil }
