// Package store persists simulation sessions and their rounds in SQLite or
// Postgres.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("store: session not found")

// StateRunning marks a session that has not been ended yet.
const StateRunning = "running"

// DB represents the database interface
type DB interface {
	Close() error
	Migrate(ctx context.Context) error
	CreateSession(ctx context.Context, sess *Session) (string, error)
	EndSession(ctx context.Context, id string, end SessionEnd) error
	InsertRounds(ctx context.Context, sessionID string, rounds []sim.Round) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, query SessionsQuery) (*SessionsList, error)
	GetSessionRounds(ctx context.Context, sessionID string, page, perPage int) (*RoundsPage, error)
	DeleteSession(ctx context.Context, id string) error
}

// Session is one simulation run.
type Session struct {
	ID             string              `json:"id"`
	Strategy       string              `json:"strategy"`
	ServerSeedHash string              `json:"server_seed_hash,omitempty"`
	ClientSeed     string              `json:"client_seed,omitempty"`
	NonceStart     uint64              `json:"nonce_start"`
	StartBalance   decimal.Decimal     `json:"start_balance"`
	Stake          decimal.Decimal     `json:"stake"`
	MaxRounds      int                 `json:"max_rounds"`
	FinalBalance   decimal.NullDecimal `json:"final_balance"`
	FinalState     string              `json:"final_state"`
	Rounds         int                 `json:"rounds"`
	Wins           int                 `json:"wins"`
	Losses         int                 `json:"losses"`
	Wagered        decimal.Decimal     `json:"wagered"`
	Profit         decimal.Decimal     `json:"profit"`
	LongestWin     int                 `json:"longest_win_streak"`
	LongestLose    int                 `json:"longest_lose_streak"`
	CreatedAt      time.Time           `json:"created_at"`
	EndedAt        *time.Time          `json:"ended_at,omitempty"`
}

// SessionEnd holds final stats for ending a session.
type SessionEnd struct {
	FinalState   string
	FinalBalance decimal.Decimal
	Rounds       int
	Wins         int
	Losses       int
	Wagered      decimal.Decimal
	Profit       decimal.Decimal
	LongestWin   int
	LongestLose  int
}

// EndFromResult converts a finished run into its session summary.
func EndFromResult(res sim.Result) SessionEnd {
	end := SessionEnd{
		FinalState:   string(res.Outcome),
		FinalBalance: res.FinalBalance,
		Wagered:      decimal.Zero,
		Profit:       decimal.Zero,
	}
	if s := res.Stats; s != nil {
		end.Rounds = s.Rounds
		end.Wins = s.Wins
		end.Losses = s.Losses
		end.Wagered = s.Wagered
		end.Profit = s.Profit
		end.LongestWin = s.LongestWinStreak
		end.LongestLose = s.LongestLoseStreak
	}
	return end
}

// StoredRound is a persisted round.
type StoredRound struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	sim.Round
}

// SessionsQuery represents query parameters for listing sessions
type SessionsQuery struct {
	Strategy string `json:"strategy,omitempty"`
	Page     int    `json:"page"`
	PerPage  int    `json:"perPage"`
}

// SessionsList represents paginated sessions response
type SessionsList struct {
	Sessions   []Session `json:"sessions"`
	TotalCount int       `json:"totalCount"`
	Page       int       `json:"page"`
	PerPage    int       `json:"perPage"`
	TotalPages int       `json:"totalPages"`
}

// RoundsPage is a paginated rounds response.
type RoundsPage struct {
	Rounds     []StoredRound `json:"rounds"`
	TotalCount int           `json:"totalCount"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	TotalPages int           `json:"totalPages"`
}

func totalPages(total, perPage int) int {
	pages := total / perPage
	if total%perPage > 0 {
		pages++
	}
	return pages
}
