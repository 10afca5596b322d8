package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// sqlStore holds the queries shared by both drivers. Queries are written
// with ? placeholders and rebound for drivers that number them.
type sqlStore struct {
	db         *sql.DB
	numbered   bool
	migrations []string
}

func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *sqlStore) Migrate(ctx context.Context) error {
	for _, m := range s.migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// CreateSession inserts a new session and returns its ID.
func (s *sqlStore) CreateSession(ctx context.Context, sess *Session) (string, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	sess.FinalState = StateRunning
	sess.Wagered = decimal.Zero
	sess.Profit = decimal.Zero

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO sessions (id, strategy, server_seed_hash, client_seed, nonce_start,
		                       start_balance, stake, max_rounds, final_state, wagered, profit, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sess.ID, sess.Strategy, sess.ServerSeedHash, sess.ClientSeed, int64(sess.NonceStart),
		sess.StartBalance.String(), sess.Stake.String(), sess.MaxRounds, sess.FinalState,
		sess.Wagered.String(), sess.Profit.String(), sess.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("store: create session: %w", err)
	}
	return sess.ID, nil
}

// EndSession marks a session as ended with final stats.
func (s *sqlStore) EndSession(ctx context.Context, id string, end SessionEnd) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE sessions SET
			ended_at = ?, final_state = ?, final_balance = ?,
			rounds = ?, wins = ?, losses = ?, wagered = ?, profit = ?,
			longest_win = ?, longest_lose = ?
		 WHERE id = ?`),
		time.Now().UTC(), end.FinalState, end.FinalBalance.String(),
		end.Rounds, end.Wins, end.Losses, end.Wagered.String(), end.Profit.String(),
		end.LongestWin, end.LongestLose,
		id,
	)
	if err != nil {
		return fmt.Errorf("store: end session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// InsertRounds records rounds in a single transaction.
func (s *sqlStore) InsertRounds(ctx context.Context, sessionID string, rounds []sim.Round) error {
	if len(rounds) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO rounds (session_id, round, target, multiplier, rolled,
		                     balance_before, stake, amount_won, balance_after)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rounds {
		_, err := stmt.ExecContext(ctx, sessionID, r.Number, r.Target, r.Multiplier, r.Rolled,
			r.BalanceBefore.String(), r.Stake.String(), r.Won.String(), r.BalanceAfter.String())
		if err != nil {
			return fmt.Errorf("store: insert round #%d: %w", r.Number, err)
		}
	}
	return tx.Commit()
}

const sessionColumns = `id, strategy, server_seed_hash, client_seed, nonce_start, start_balance, stake,
	max_rounds, final_balance, final_state, rounds, wins, losses, wagered, profit,
	longest_win, longest_lose, created_at, ended_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess  Session
		nonce int64
	)
	err := row.Scan(
		&sess.ID, &sess.Strategy, &sess.ServerSeedHash, &sess.ClientSeed, &nonce,
		&sess.StartBalance, &sess.Stake, &sess.MaxRounds, &sess.FinalBalance, &sess.FinalState,
		&sess.Rounds, &sess.Wins, &sess.Losses, &sess.Wagered, &sess.Profit,
		&sess.LongestWin, &sess.LongestLose, &sess.CreatedAt, &sess.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	sess.NonceStart = uint64(nonce)
	return &sess, nil
}

// GetSession fetches a session by ID.
func (s *sqlStore) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`), id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get session: %w", err)
	}
	return sess, nil
}

// ListSessions returns sessions ordered by creation date (newest first).
func (s *sqlStore) ListSessions(ctx context.Context, query SessionsQuery) (*SessionsList, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage <= 0 {
		query.PerPage = 20
	}

	where, args := "", []any{}
	if query.Strategy != "" {
		where = " WHERE strategy = ?"
		args = append(args, query.Strategy)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM sessions`+where), args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("store: count sessions: %w", err)
	}

	args = append(args, query.PerPage, (query.Page-1)*query.PerPage)
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+sessionColumns+` FROM sessions`+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}

	return &SessionsList{
		Sessions:   sessions,
		TotalCount: total,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages(total, query.PerPage),
	}, nil
}

// GetSessionRounds returns paginated rounds for a session in play order.
func (s *sqlStore) GetSessionRounds(ctx context.Context, sessionID string, page, perPage int) (*RoundsPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 50
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM rounds WHERE session_id = ?`), sessionID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("store: count rounds: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, session_id, round, target, multiplier, rolled,
		        balance_before, stake, amount_won, balance_after
		 FROM rounds WHERE session_id = ? ORDER BY round LIMIT ? OFFSET ?`),
		sessionID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get session rounds: %w", err)
	}
	defer rows.Close()

	rounds := []StoredRound{}
	for rows.Next() {
		var r StoredRound
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Number, &r.Target, &r.Multiplier, &r.Rolled,
			&r.BalanceBefore, &r.Stake, &r.Won, &r.BalanceAfter); err != nil {
			return nil, fmt.Errorf("store: scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: get session rounds: %w", err)
	}

	return &RoundsPage{
		Rounds:     rounds,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(total, perPage),
	}, nil
}

// DeleteSession removes a session and its rounds.
func (s *sqlStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM rounds WHERE session_id = ?`), id); err != nil {
		return fmt.Errorf("store: delete rounds: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}
