package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/pkillboredom/MA210-Roulette/internal/config"
	"github.com/pkillboredom/MA210-Roulette/internal/engine"
	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

func outcomeStyle(o sim.Outcome) string {
	switch o {
	case sim.OutcomeBust:
		return pterm.LightRed(string(o))
	case sim.OutcomeStopped:
		return pterm.LightYellow(string(o))
	default:
		return pterm.LightGreen(string(o))
	}
}

// reportRows lays out a finished run as label/value pairs.
func reportRows(rep *report) [][]string {
	res := rep.Result
	rows := [][]string{
		{"strategy", res.Strategy},
		{"outcome", outcomeStyle(res.Outcome)},
		{"final balance", res.FinalBalance.String()},
	}
	if s := res.Stats; s != nil {
		rows = append(rows,
			[]string{"rounds", strconv.Itoa(s.Rounds)},
			[]string{"wins / losses", fmt.Sprintf("%d / %d", s.Wins, s.Losses)},
			[]string{"wagered", s.Wagered.String()},
			[]string{"paid", s.Paid.String()},
			[]string{"profit", fmt.Sprintf("%s (%.2f%%)", s.Profit, s.ProfitPercent())},
			[]string{"return to player", s.ReturnToPlayer().String()},
			[]string{"highest / lowest balance", fmt.Sprintf("%s / %s", s.HighestBalance, s.LowestBalance)},
			[]string{"longest win / lose streak", fmt.Sprintf("%d / %d", s.LongestWinStreak, s.LongestLoseStreak)},
		)
	}
	if rep.SessionID != "" {
		rows = append(rows, []string{"session", rep.SessionID})
	}
	if rep.CSVPath != "" {
		rows = append(rows, []string{"csv", rep.CSVPath})
	}
	if rep.Seeds != nil {
		rows = append(rows,
			[]string{"server seed hash", engine.HashServerSeed(rep.Seeds.Server)},
			[]string{"client seed", rep.Seeds.Client},
			[]string{"nonces", fmt.Sprintf("%d..%d", rep.NonceStart, rep.NonceEnd)},
		)
	}
	return rows
}

func printReport(rep *report) {
	pterm.DefaultSection.Println("Run finished")
	if err := pterm.DefaultTable.WithData(reportRows(rep)).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

func printSummary(cfg config.Config, s sim.Summary) {
	pterm.DefaultSection.Printfln("Batch of %d runs (%s)", s.Runs, cfg.Strategy)
	rows := [][]string{
		{"busted", strconv.Itoa(s.Busted)},
		{"stopped", strconv.Itoa(s.Stopped)},
		{"total rounds", strconv.Itoa(s.TotalRounds)},
		{"mean rounds", strconv.FormatFloat(s.MeanRounds, 'f', 2, 64)},
		{"total profit", s.TotalProfit.String()},
		{"mean profit", s.MeanProfit.String()},
		{"best / worst balance", fmt.Sprintf("%s / %s", s.BestBalance, s.WorstBalance)},
	}
	if err := pterm.DefaultTable.WithData(rows).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

func colorize(v int) string {
	label := strconv.Itoa(v)
	switch roulette.ColorOf(v) {
	case roulette.Red:
		return pterm.BgRed.Sprint(" " + label + " ")
	case roulette.Black:
		return pterm.BgBlack.Sprint(" " + label + " ")
	default:
		return pterm.BgGreen.Sprint(" " + label + " ")
	}
}

// printTable draws the betting layout: zero, the three rows of twelve, and
// the outside groupings with their payouts.
func printTable(catalog *roulette.Catalog) {
	pterm.DefaultSection.Println("Table")
	pterm.Println(colorize(0))
	for row := 3; row >= 1; row-- {
		line := ""
		for col := 0; col < 12; col++ {
			line += colorize(col*3+row) + " "
		}
		pterm.Println(line)
	}
	pterm.Println()

	data := [][]string{{"group", "category", "pays", "values"}}
	for _, g := range roulette.Groups() {
		c := catalog.Group(g)
		data = append(data, []string{
			c.Name(),
			c.Category().String(),
			fmt.Sprintf("%d:1", c.Multiplier()),
			fmt.Sprint(c.Values()),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}
}
