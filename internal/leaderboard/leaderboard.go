// Package leaderboard ranks finished sessions by profit.
package leaderboard

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Key is the Redis sorted set holding the ranking.
const Key = "betsim:leaderboard"

var ErrInvalidLimit = errors.New("leaderboard: limit must be positive")

// Entry is one ranked session.
type Entry struct {
	Rank      int             `json:"rank"`
	SessionID string          `json:"session_id"`
	Profit    decimal.Decimal `json:"profit"`
}

// Board stores session profits and returns the best ones.
type Board interface {
	Submit(ctx context.Context, sessionID string, profit decimal.Decimal) error
	Top(ctx context.Context, n int) ([]Entry, error)
	Remove(ctx context.Context, sessionID string) error
}

// Memory is an in-process Board.
type Memory struct {
	mu     sync.RWMutex
	scores map[string]decimal.Decimal
}

var _ Board = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{scores: make(map[string]decimal.Decimal)}
}

func (m *Memory) Submit(_ context.Context, sessionID string, profit decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[sessionID] = profit
	return nil
}

func (m *Memory) Top(_ context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.scores))
	for id, p := range m.scores {
		entries = append(entries, Entry{SessionID: id, Profit: p})
	}
	m.mu.RUnlock()

	// same order as ZREVRANGE: score desc, member desc on ties
	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].Profit.Cmp(entries[j].Profit); c != 0 {
			return c > 0
		}
		return entries[i].SessionID > entries[j].SessionID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (m *Memory) Remove(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scores, sessionID)
	return nil
}
