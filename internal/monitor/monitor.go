package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposed on the /metrics endpoint for CI dashboards.
type Metrics struct {
	MovesTotal         prometheus.Counter
	InvalidMovesTotal  prometheus.Counter
	GamesFinishedTotal *prometheus.CounterVec
	RestartsTotal      prometheus.Counter
	CommandsTotal      *prometheus.CounterVec
	ActiveWatchers     prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		MovesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Total number of accepted moves",
		}),
		InvalidMovesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_moves_total",
			Help:      "Total number of rejected moves",
		}),
		GamesFinishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Total number of finished games by result",
		}, []string{"result"}),
		RestartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_total",
			Help:      "Total number of game restarts",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of automation commands by name",
		}, []string{"command"}),
		ActiveWatchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_watchers",
			Help:      "Number of drivers currently awaiting an event",
		}),
	}

	return m
}

// Register adds all collectors to the registry. A dedicated registry per
// process keeps parallel test runs from colliding on the default one.
func (that *Metrics) Register(registry *prometheus.Registry) {
	registry.MustRegister(
		that.MovesTotal,
		that.InvalidMovesTotal,
		that.GamesFinishedTotal,
		that.RestartsTotal,
		that.CommandsTotal,
		that.ActiveWatchers,
	)
}
