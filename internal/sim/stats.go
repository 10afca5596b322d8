package sim

import "github.com/shopspring/decimal"

// Statistics tracks session-level results of a run.
type Statistics struct {
	Rounds  int             `json:"rounds"`
	Wins    int             `json:"wins"`
	Losses  int             `json:"losses"`
	Wagered decimal.Decimal `json:"wagered"`
	Paid    decimal.Decimal `json:"paid"`
	Profit  decimal.Decimal `json:"profit"`

	StartBalance   decimal.Decimal `json:"start_balance"`
	Balance        decimal.Decimal `json:"balance"`
	HighestBalance decimal.Decimal `json:"highest_balance"`
	LowestBalance  decimal.Decimal `json:"lowest_balance"`
	HighestWin     decimal.Decimal `json:"highest_win"`

	WinStreak  int `json:"win_streak"`
	LoseStreak int `json:"lose_streak"`
	// Positive = win streak, negative = lose streak.
	CurrentStreak     int `json:"current_streak"`
	LongestWinStreak  int `json:"longest_win_streak"`
	LongestLoseStreak int `json:"longest_lose_streak"`
}

// NewStatistics creates a Statistics with starting balance.
func NewStatistics(startBalance decimal.Decimal) *Statistics {
	return &Statistics{
		Wagered:        decimal.Zero,
		Paid:           decimal.Zero,
		Profit:         decimal.Zero,
		StartBalance:   startBalance,
		Balance:        startBalance,
		HighestBalance: startBalance,
		LowestBalance:  startBalance,
		HighestWin:     decimal.Zero,
	}
}

// RecordRound folds a finished round into the totals.
func (s *Statistics) RecordRound(r Round) {
	s.Rounds++
	s.Wagered = s.Wagered.Add(r.Stake)
	s.Paid = s.Paid.Add(r.Won)
	s.Profit = s.Profit.Add(r.Won).Sub(r.Stake)
	s.Balance = r.BalanceAfter

	if r.Win() {
		s.Wins++
		s.WinStreak++
		s.LoseStreak = 0
		s.CurrentStreak = s.WinStreak
	} else {
		s.Losses++
		s.LoseStreak++
		s.WinStreak = 0
		s.CurrentStreak = -s.LoseStreak
	}

	if r.Won.GreaterThan(s.HighestWin) {
		s.HighestWin = r.Won
	}
	if s.Balance.GreaterThan(s.HighestBalance) {
		s.HighestBalance = s.Balance
	}
	if s.Balance.LessThan(s.LowestBalance) {
		s.LowestBalance = s.Balance
	}
	if s.WinStreak > s.LongestWinStreak {
		s.LongestWinStreak = s.WinStreak
	}
	if s.LoseStreak > s.LongestLoseStreak {
		s.LongestLoseStreak = s.LoseStreak
	}
}

// ReturnToPlayer is paid winnings over total wagered, zero before the first
// round.
func (s *Statistics) ReturnToPlayer() decimal.Decimal {
	if s.Wagered.IsZero() {
		return decimal.Zero
	}
	return s.Paid.DivRound(s.Wagered, 6)
}

// ProfitPercent returns profit as a percentage of starting balance.
func (s *Statistics) ProfitPercent() float64 {
	if s.StartBalance.IsZero() {
		return 0
	}
	return s.Profit.Div(s.StartBalance.Abs()).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
