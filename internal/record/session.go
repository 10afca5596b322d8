package record

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkillboredom/MA210-Roulette/internal/sim"
	"github.com/pkillboredom/MA210-Roulette/internal/store"
)

const defaultFlushSize = 50

// SessionRecorder buffers rounds and flushes them to the store in batches.
type SessionRecorder struct {
	db        store.DB
	sessionID string
	mu        sync.Mutex
	buffer    []sim.Round
	flushSize int
}

// NewSessionRecorder creates a recorder for the given session.
// flushSize controls how many rounds are buffered before a batch insert.
func NewSessionRecorder(db store.DB, sessionID string, flushSize int) *SessionRecorder {
	if flushSize <= 0 {
		flushSize = defaultFlushSize
	}
	return &SessionRecorder{
		db:        db,
		sessionID: sessionID,
		buffer:    make([]sim.Round, 0, flushSize),
		flushSize: flushSize,
	}
}

// SessionID is the session rounds are written under.
func (r *SessionRecorder) SessionID() string { return r.sessionID }

func (r *SessionRecorder) Record(ctx context.Context, round sim.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, round)
	if len(r.buffer) >= r.flushSize {
		return r.flushLocked(ctx)
	}
	return nil
}

// Flush persists any remaining buffered rounds.
func (r *SessionRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked(ctx)
}

func (r *SessionRecorder) flushLocked(ctx context.Context) error {
	if len(r.buffer) == 0 {
		return nil
	}
	if err := r.db.InsertRounds(ctx, r.sessionID, r.buffer); err != nil {
		return fmt.Errorf("record: flush rounds: %w", err)
	}
	r.buffer = r.buffer[:0]
	return nil
}

// Close flushes the buffer. The store itself stays open.
func (r *SessionRecorder) Close() error {
	return r.Flush(context.Background())
}
