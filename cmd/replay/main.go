// Command replay walks a seeded session in draw order so its bet targets
// and spins can be checked by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/pkillboredom/MA210-Roulette/internal/config"
	"github.com/pkillboredom/MA210-Roulette/internal/engine"
	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("error: %v", err)
	}

	serverSeed := flag.String("server", cfg.ServerSeed, "server seed")
	clientSeed := flag.String("client", cfg.ClientSeed, "client seed")
	from := flag.Uint64("nonce", 0, "nonce the session started at")
	count := flag.Int("count", 20, "number of rounds to replay")
	strategyName := flag.String("strategy", cfg.Strategy, "strategy the session played (random or fixed:<target>)")
	find := flag.String("find", "", "only print rounds whose spin lands in this target (e.g. 17, red, split:1-2)")
	flag.Parse()

	if *serverSeed == "" || *clientSeed == "" {
		config.Exitf("error: both -server and -client seeds are required")
	}
	if *count <= 0 {
		config.Exitf("error: -count must be positive")
	}
	strategy, err := sim.ParseStrategy(*strategyName)
	if err != nil {
		config.Exitf("error: -strategy: %v", err)
	}

	var filter roulette.Space
	if *find != "" {
		filter, err = roulette.NewCatalog().Lookup(*find)
		if err != nil {
			config.Exitf("error: -find: %v", err)
		}
	}

	seeds := engine.Seeds{Server: *serverSeed, Client: *clientSeed}
	rows, err := replay(context.Background(), seeds, *from, *count, strategy, filter)
	if err != nil {
		config.Exitf("error: %v", err)
	}

	pterm.Info.Printfln("server seed hash: %s", engine.HashServerSeed(seeds.Server))
	if filter != nil {
		pterm.Info.Printfln("%d of %d rounds rolled %s", len(rows)-1, *count, filter.Name())
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		config.Exitf("error: render: %v", err)
	}
}

// replay drives a table from the session's seeds exactly as sim.Runner
// does: each round asks the strategy for its target, then spins. The nonce
// column is the first nonce the round consumed. A non-nil filter keeps only
// the rounds whose spin it covers.
func replay(ctx context.Context, seeds engine.Seeds, from uint64, count int, strategy sim.Strategy, filter roulette.Space) ([][]string, error) {
	src := engine.NewSeededSource(seeds, from)
	table := roulette.BuildTable(roulette.WithSource(src))

	rows := [][]string{{"round", "nonce", "target", "rolled", "color"}}
	for n := 1; n <= count; n++ {
		nonce := src.Nonce()

		spaces, err := strategy.Pick(ctx, table, sim.State{Round: n, LastRoll: -1})
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", n, err)
		}
		if len(spaces) != 1 || spaces[0] == nil {
			return nil, fmt.Errorf("round %d: strategy %s picked %d spaces", n, strategy.Name(), len(spaces))
		}
		rolled, err := table.RollWheel()
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", n, err)
		}
		if filter != nil && !filter.Covers(rolled.Value) {
			continue
		}

		rows = append(rows, []string{
			strconv.Itoa(n),
			strconv.FormatUint(nonce, 10),
			spaces[0].Name(),
			strconv.Itoa(rolled.Value),
			roulette.ColorOf(rolled.Value).String(),
		})
	}
	return rows, nil
}
