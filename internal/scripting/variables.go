package scripting

import (
	"github.com/dop251/goja"

	"github.com/pkillboredom/MA210-Roulette/internal/roulette"
	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// injectConstants exposes the grouping names, e.g. RED = "red",
// COLUMN_A = "column-a", DOZEN_2 = "dozen-2".
func injectConstants(rt *goja.Runtime) {
	names := make([]string, 0, len(roulette.Groups()))
	for _, g := range roulette.Groups() {
		name := g.String()
		names = append(names, name)
		rt.Set(constName(name), name)
	}
	rt.Set("GROUPS", names)
	rt.Set("POCKETS", roulette.PocketCount)
}

func constName(group string) string {
	b := []byte(group)
	for i, c := range b {
		switch {
		case c == '-':
			b[i] = '_'
		case c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// stateGlobals maps the round state onto script variables. Money is
// exposed as JS numbers.
func stateGlobals(s sim.State) map[string]any {
	var lastRoll any
	if s.LastRoll >= 0 {
		lastRoll = s.LastRoll
	}
	return map[string]any{
		"round":    s.Round,
		"balance":  s.Balance.InexactFloat64(),
		"stake":    s.Stake.InexactFloat64(),
		"profit":   s.Profit.InexactFloat64(),
		"lastwin":  s.LastWin,
		"lastroll": lastRoll,
	}
}
