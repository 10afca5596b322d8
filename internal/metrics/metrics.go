// Package metrics exposes simulation counters to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkillboredom/MA210-Roulette/internal/sim"
)

// Metrics holds the simulation collectors. It also works as a round sink.
type Metrics struct {
	Rounds   prometheus.Counter
	Wins     prometheus.Counter
	Wagered  prometheus.Counter
	Paid     prometheus.Counter
	Sessions *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Rounds: f.NewCounter(prometheus.CounterOpts{
			Name: "betsim_rounds_total",
			Help: "Roulette rounds played.",
		}),
		Wins: f.NewCounter(prometheus.CounterOpts{
			Name: "betsim_wins_total",
			Help: "Rounds that paid out.",
		}),
		Wagered: f.NewCounter(prometheus.CounterOpts{
			Name: "betsim_wagered_total",
			Help: "Total stake placed.",
		}),
		Paid: f.NewCounter(prometheus.CounterOpts{
			Name: "betsim_paid_total",
			Help: "Total winnings paid.",
		}),
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "betsim_sessions_total",
			Help: "Finished simulation sessions by outcome.",
		}, []string{"outcome"}),
	}
}

// Record counts one round.
func (m *Metrics) Record(_ context.Context, r sim.Round) error {
	m.Rounds.Inc()
	if r.Win() {
		m.Wins.Inc()
	}
	m.Wagered.Add(r.Stake.InexactFloat64())
	m.Paid.Add(r.Won.InexactFloat64())
	return nil
}

// Close is a no-op so Metrics can sit in a recorder fan-out.
func (m *Metrics) Close() error { return nil }

// ObserveSession counts a finished session. Failed runs use "error".
func (m *Metrics) ObserveSession(outcome sim.Outcome, err error) {
	label := string(outcome)
	if err != nil {
		label = "error"
	}
	m.Sessions.WithLabelValues(label).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
