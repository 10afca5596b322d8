package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/shopspring/decimal"

	"github.com/pkillboredom/MA210-Roulette/internal/config"
	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
)

const (
	menuRun   = "Run simulation"
	menuBatch = "Run batch"
	menuTable = "Show table"
	menuBet   = "Evaluate a bet"
	menuQuit  = "Quit"
)

// evaluation is the result of settling one hand-placed bet.
type evaluation struct {
	Space  roulette.Space
	Rolled roulette.Primitive
	Won    decimal.Decimal
}

// evaluateBet settles a stake on target against rolled. A negative rolled
// value spins the table instead.
func evaluateBet(table *roulette.Table, target string, stake decimal.Decimal, rolled int) (evaluation, error) {
	if !stake.IsPositive() {
		return evaluation{}, fmt.Errorf("%w: stake must be positive", config.ErrInvalid)
	}
	space, err := table.Lookup(target)
	if err != nil {
		return evaluation{}, err
	}

	var p roulette.Primitive
	if rolled < 0 {
		p, err = table.RollWheel()
	} else {
		p, err = table.Catalog().Primitive(rolled)
	}
	if err != nil {
		return evaluation{}, err
	}

	var bet roulette.Bet
	bet.Place(space, stake)
	return evaluation{Space: space, Rolled: p, Won: bet.Evaluate(p)}, nil
}

func (a *app) interactive(ctx context.Context, opts options) error {
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("bet", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("sim", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	table := roulette.BuildTable()
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		choice, err := pterm.DefaultInteractiveSelect.
			WithDefaultText("What next?").
			WithOptions([]string{menuRun, menuBatch, menuTable, menuBet, menuQuit}).
			Show()
		if err != nil {
			return err
		}

		switch choice {
		case menuRun:
			run, err := promptRun(opts)
			if err != nil {
				pterm.Error.Println(err)
				continue
			}
			spinner, _ := pterm.DefaultSpinner.Start("Spinning...")
			rep, err := a.runSingle(ctx, run)
			if err != nil {
				spinner.Fail(err.Error())
				continue
			}
			spinner.Success()
			printReport(rep)
		case menuBatch:
			run, err := promptRun(opts)
			if err != nil {
				pterm.Error.Println(err)
				continue
			}
			n, err := promptInt("Number of runs", 100)
			if err != nil || n <= 0 {
				pterm.Error.Println("number of runs must be a positive integer")
				continue
			}
			spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Running %d simulations...", n))
			summary, err := a.runBatch(ctx, run.cfg, n)
			if err != nil {
				spinner.Fail(err.Error())
				continue
			}
			spinner.Success()
			printSummary(run.cfg, summary)
		case menuTable:
			printTable(table.Catalog())
		case menuBet:
			if err := promptBet(table, opts.cfg.Stake); err != nil {
				pterm.Error.Println(err)
			}
		case menuQuit:
			return nil
		}
	}
}

func prompt(text, def string) (string, error) {
	v, err := pterm.DefaultInteractiveTextInput.WithDefaultText(text).WithDefaultValue(def).Show()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func promptInt(text string, def int) (int, error) {
	v, err := prompt(text, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func promptDecimal(text string, def decimal.Decimal) (decimal.Decimal, error) {
	v, err := prompt(text, def.String())
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(v)
}

// promptRun asks for the per-run settings, defaulting to opts.
func promptRun(opts options) (options, error) {
	run := opts
	var err error
	if run.cfg.Strategy, err = prompt("Strategy (random, fixed:<target>, script:<file>)", opts.cfg.Strategy); err != nil {
		return options{}, err
	}
	if run.cfg.StartBalance, err = promptDecimal("Starting balance", opts.cfg.StartBalance); err != nil {
		return options{}, err
	}
	if run.cfg.Stake, err = promptDecimal("Stake", opts.cfg.Stake); err != nil {
		return options{}, err
	}
	if run.cfg.MaxRounds, err = promptInt("Max rounds", opts.cfg.MaxRounds); err != nil {
		return options{}, err
	}
	if err := run.cfg.Validate(); err != nil {
		return options{}, err
	}
	return run, nil
}

func promptBet(table *roulette.Table, defStake decimal.Decimal) error {
	target, err := prompt("Target (17, red, dozen-2, split:1-2, corner:1-2-4-5)", "red")
	if err != nil {
		return err
	}
	stake, err := promptDecimal("Stake", defStake)
	if err != nil {
		return err
	}
	rolledText, err := prompt("Rolled number (empty to spin)", "")
	if err != nil {
		return err
	}
	rolled := -1
	if rolledText != "" {
		if rolled, err = strconv.Atoi(rolledText); err != nil {
			return errors.New("rolled number must be an integer")
		}
	}

	ev, err := evaluateBet(table, target, stake, rolled)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("%s pays %d:1, ball landed on %s", ev.Space.Name(), ev.Space.Multiplier(), colorize(ev.Rolled.Value))
	if ev.Won.IsPositive() {
		pterm.Success.Printfln("won %s", ev.Won)
	} else {
		pterm.Warning.Printfln("lost %s", stake)
	}
	return nil
}
