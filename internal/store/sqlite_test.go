package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

func testDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "betsim_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSession(strategy string) *Session {
	return &Session{
		Strategy:       strategy,
		ServerSeedHash: "abc123",
		ClientSeed:     "client",
		NonceStart:     7,
		StartBalance:   dec("500"),
		Stake:          dec("5"),
		MaxRounds:      1000,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestCreateAndGetSession(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	id, err := db.CreateSession(ctx, newSession("random"))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty session ID")
	}

	got, err := db.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Strategy != "random" || got.FinalState != StateRunning {
		t.Errorf("strategy/state = %q/%q", got.Strategy, got.FinalState)
	}
	if !got.StartBalance.Equal(dec("500")) || !got.Stake.Equal(dec("5")) {
		t.Errorf("balance/stake = %s/%s", got.StartBalance, got.Stake)
	}
	if got.NonceStart != 7 || got.ClientSeed != "client" {
		t.Errorf("nonce/client = %d/%q", got.NonceStart, got.ClientSeed)
	}
	if got.FinalBalance.Valid || got.EndedAt != nil {
		t.Error("fresh session should have no final balance or end time")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetSession(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	id, _ := db.CreateSession(ctx, newSession("fixed-red"))

	res := sim.Result{
		Outcome:      sim.OutcomeBust,
		FinalBalance: dec("2.50"),
		Stats: &sim.Statistics{
			Rounds: 100, Wins: 45, Losses: 55,
			Wagered: dec("500"), Profit: dec("-497.5"),
			LongestWinStreak: 4, LongestLoseStreak: 9,
		},
	}
	if err := db.EndSession(ctx, id, EndFromResult(res)); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	got, _ := db.GetSession(ctx, id)
	if got.FinalState != "bust" || got.EndedAt == nil {
		t.Errorf("state = %q, ended = %v", got.FinalState, got.EndedAt)
	}
	if !got.FinalBalance.Valid || !got.FinalBalance.Decimal.Equal(dec("2.5")) {
		t.Errorf("final balance = %v", got.FinalBalance)
	}
	if got.Rounds != 100 || got.Wins != 45 || got.Losses != 55 || got.LongestLose != 9 {
		t.Errorf("totals = %+v", got)
	}
	if !got.Profit.Equal(dec("-497.5")) {
		t.Errorf("profit = %s", got.Profit)
	}

	if err := db.EndSession(ctx, "missing", SessionEnd{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("ending missing session: %v", err)
	}
}

func sampleRounds(n int) []sim.Round {
	rounds := make([]sim.Round, n)
	balance := dec("500")
	for i := range rounds {
		won := decimal.Zero
		if i%3 == 0 {
			won = dec("5")
		}
		after := balance.Sub(dec("5")).Add(won)
		rounds[i] = sim.Round{
			Number: i + 1, Target: "red", Multiplier: 1, Rolled: i % 37,
			BalanceBefore: balance, Stake: dec("5"), Won: won, BalanceAfter: after,
		}
		balance = after
	}
	return rounds
}

func TestInsertAndPageRounds(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	id, _ := db.CreateSession(ctx, newSession("random"))

	rounds := sampleRounds(25)
	if err := db.InsertRounds(ctx, id, rounds[:10]); err != nil {
		t.Fatalf("InsertRounds: %v", err)
	}
	if err := db.InsertRounds(ctx, id, rounds[10:]); err != nil {
		t.Fatalf("InsertRounds: %v", err)
	}
	if err := db.InsertRounds(ctx, id, nil); err != nil {
		t.Fatalf("InsertRounds(nil): %v", err)
	}

	page, err := db.GetSessionRounds(ctx, id, 2, 10)
	if err != nil {
		t.Fatalf("GetSessionRounds: %v", err)
	}
	if page.TotalCount != 25 || page.TotalPages != 3 || len(page.Rounds) != 10 {
		t.Fatalf("page = total %d pages %d len %d", page.TotalCount, page.TotalPages, len(page.Rounds))
	}
	first := page.Rounds[0]
	want := rounds[10]
	if first.Number != 11 || first.SessionID != id || first.Target != want.Target {
		t.Errorf("first round = %+v", first)
	}
	if !first.BalanceBefore.Equal(want.BalanceBefore) || !first.BalanceAfter.Equal(want.BalanceAfter) || !first.Won.Equal(want.Won) {
		t.Errorf("round 11 money = %s/%s/%s, want %s/%s/%s",
			first.BalanceBefore, first.Won, first.BalanceAfter, want.BalanceBefore, want.Won, want.BalanceAfter)
	}

	last, _ := db.GetSessionRounds(ctx, id, 3, 10)
	if len(last.Rounds) != 5 {
		t.Errorf("last page has %d rounds, want 5", len(last.Rounds))
	}
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, strategy := range []string{"random", "fixed-red", "random"} {
		sess := newSession(strategy)
		sess.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := db.CreateSession(ctx, sess); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.ListSessions(ctx, SessionsQuery{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if all.TotalCount != 3 || len(all.Sessions) != 3 || all.Page != 1 || all.PerPage != 20 {
		t.Fatalf("list = %+v", all)
	}
	if !all.Sessions[0].CreatedAt.After(all.Sessions[2].CreatedAt) {
		t.Error("sessions not ordered newest first")
	}

	random, err := db.ListSessions(ctx, SessionsQuery{Strategy: "random", PerPage: 1})
	if err != nil {
		t.Fatalf("ListSessions(random): %v", err)
	}
	if random.TotalCount != 2 || random.TotalPages != 2 || len(random.Sessions) != 1 {
		t.Errorf("filtered list = total %d pages %d len %d", random.TotalCount, random.TotalPages, len(random.Sessions))
	}
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	id, _ := db.CreateSession(ctx, newSession("random"))
	if err := db.InsertRounds(ctx, id, sampleRounds(3)); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := db.GetSession(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("session still present: %v", err)
	}
	page, err := db.GetSessionRounds(ctx, id, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 0 {
		t.Errorf("%d rounds survived delete", page.TotalCount)
	}
	if err := db.DeleteSession(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestRebind(t *testing.T) {
	s := &sqlStore{numbered: true}
	got := s.rebind("SELECT * FROM t WHERE a = ? AND b = ? LIMIT ?")
	want := "SELECT * FROM t WHERE a = $1 AND b = $2 LIMIT $3"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
	plain := &sqlStore{}
	if q := "a = ?"; plain.rebind(q) != q {
		t.Error("sqlite queries should not be rebound")
	}
}
